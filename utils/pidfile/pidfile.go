package pidfile

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// PIDFile is a locked pid file of a running server
type PIDFile struct {
	path string
	f    *os.File
}

// Create writes the pid of this process into path and keeps an exclusive lock on it.
// It fails while another process holds the lock.
func Create(path string) (*PIDFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		dat, _ := ioutil.ReadFile(path)
		return nil, fmt.Errorf("zbxcall %s is already running, exit", strings.TrimSpace(string(dat)))
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0); err != nil {
		f.Close()
		return nil, err
	}
	return &PIDFile{path: path, f: f}, nil
}

// Close removes the pid file and releases the lock
func (p *PIDFile) Close() error {
	os.Remove(p.path)
	unix.Flock(int(p.f.Fd()), unix.LOCK_UN)
	return p.f.Close()
}
