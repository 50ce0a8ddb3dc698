package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/emicklei/go-restful"
	log "github.com/sirupsen/logrus"

	aclconf "github.com/zbxtools/zbxcall/internal/acl/config"
	dbconf "github.com/zbxtools/zbxcall/internal/db/config"
	proxyserver "github.com/zbxtools/zbxcall/internal/proxy/server"
	proxytypes "github.com/zbxtools/zbxcall/internal/proxy/types"
	"github.com/zbxtools/zbxcall/internal/queue"
	queueconf "github.com/zbxtools/zbxcall/internal/queue/config"
	"github.com/zbxtools/zbxcall/internal/tls"
	"github.com/zbxtools/zbxcall/modules/call"
	"github.com/zbxtools/zbxcall/modules/history"
	appconf "github.com/zbxtools/zbxcall/utils/config"
	"github.com/zbxtools/zbxcall/utils/pidfile"
)

const (
	prefix string = "/v1/"

	pruneInterval = time.Hour
)

// Initialize builds the REST container
func Initialize(s *call.Service, h *history.Service) *restful.Container {
	wsContainer := restful.NewContainer()
	wsContainer.Filter(logRequest)
	wsContainer.Router(restful.CurlyRouter{})

	// Register controller to container
	call.Register(prefix, wsContainer, s)
	if h != nil {
		history.Register(prefix, wsContainer, h)
	}
	return wsContainer
}

func logRequest(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)
	log.WithFields(log.Fields{
		"method":   req.Request.Method,
		"uri":      req.Request.URL.RequestURI(),
		"status":   resp.StatusCode(),
		"duration": time.Since(start).String(),
	}).Debug("REST request")
}

// runServe handles "zbxcall serve": the REST gateway
func runServe() int {
	cfg := appconf.NewConfig()

	pid, err := pidfile.Create(cfg.Def.PIDFile)
	if err != nil {
		log.Error(err)
		return 1
	}
	defer pid.Close()

	d, err := newDeps()
	if err != nil {
		log.Error(err)
		return 1
	}
	defer d.close()

	ctx, cancel := signalContext()
	defer cancel()

	if d.policy != nil && aclconf.NewConfig().Watch {
		if err := d.policy.Watch(ctx); err != nil {
			log.Errorf("Failed to watch policy files: %v", err)
		}
	}

	var h *history.Service
	if d.db != nil {
		h = history.NewService(d.db)
		retention := time.Duration(dbconf.NewConfig().Retention) * time.Hour
		go h.RunPruner(ctx, retention, pruneInterval)
	}

	container := Initialize(d.service(), h)
	server := &http.Server{
		Addr:    cfg.Def.Address + ":" + strconv.FormatUint(uint64(cfg.Def.Port), 10),
		Handler: container,
	}
	if cfg.Def.TLS {
		tlsconfig, err := tls.GenTLSConfig(cfg.Def.CertPath, cfg.Def.ClientCAPath, cfg.Def.ClientAuth)
		if err != nil {
			log.Errorf("Failed to generate TLS config: %v", err)
			return 1
		}
		server.TLSConfig = tlsconfig
		container.Filter(tls.CertSubject(call.SubjectHeader))
	}

	errc := make(chan error, 1)
	go func() {
		if server.TLSConfig != nil {
			log.Infof("REST API server serving on https://%s", server.Addr)
			errc <- server.ListenAndServeTLS("", "")
			return
		}
		log.Infof("REST API server serving on %s", server.Addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		log.Error(err)
		return 1
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to shut down REST API server: %v", err)
		return 1
	}
	return 0
}

// runPlugin handles "zbxcall plugin": net/rpc over stdin/stdout or TCP
func runPlugin() int {
	d, err := newDeps()
	if err != nil {
		log.Error(err)
		return 1
	}
	defer d.close()

	if addr := appconf.NewConfig().Def.RPCAddress; addr != "" {
		ctx, cancel := signalContext()
		defer cancel()
		if err := proxyserver.ServeTCP(ctx, addr, d.service()); err != nil {
			log.Error(err)
			return 1
		}
		return 0
	}

	pipes := proxytypes.Stdio()
	if err := proxyserver.ServeConn(&pipes, d.service()); err != nil {
		log.Error(err)
		return 1
	}
	return 0
}

// runConsume handles "zbxcall consume": the amqp queue consumer
func runConsume() int {
	d, err := newDeps()
	if err != nil {
		log.Error(err)
		return 1
	}
	defer d.close()

	ctx, cancel := signalContext()
	defer cancel()

	c, err := queue.NewConsumer(queueconf.NewConfig(), d.service())
	if err != nil {
		log.Error(err)
		return 1
	}

	select {
	case <-ctx.Done():
		if err := c.Close(); err != nil {
			log.Error(err)
			return 1
		}
	case err := <-c.Done():
		if err != nil {
			log.Error(err)
			return 1
		}
	}
	return 0
}

// runHistory handles "zbxcall history"
func runHistory() int {
	d, err := newDeps()
	if err != nil {
		log.Error(err)
		return 1
	}
	defer d.close()
	if d.db == nil {
		log.Error("No call history database")
		return 1
	}
	h := history.NewService(d.db)

	if hours, _ := strconv.Atoi(flagString("prune-hours")); hours > 0 {
		n, err := h.Prune(time.Duration(hours) * time.Hour)
		if err != nil {
			log.Error(err)
			return 1
		}
		fmt.Printf("Pruned %d calls\n", n)
		return 0
	}

	if id := flagString("id"); id != "" {
		r, err := h.Get(id)
		if err != nil {
			log.Errorf("Failed to get call %s: %v", id, err)
			return 1
		}
		printJSON(r)
		return 0
	}

	query := map[string]interface{}{}
	if m := flagString("method"); m != "" {
		query["Method"] = m
	}
	rs, err := h.List(query)
	if err != nil {
		log.Error(err)
		return 1
	}
	printJSON(rs)
	return 0
}
