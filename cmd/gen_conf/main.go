package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/zbxtools/zbxcall/cmd/gen_conf/template"
)

const confPath = "./zbxcall.toml"

func main() {
	path := pflag.String("path", confPath, "the path of the generated zbxcall config.")
	datas := pflag.String("data", "",
		"Data options that overwrite the config opitons. "+
			"It can be a json format as '{\"a\": 1, \"b\": 2}'. "+
			"It can also start a letter @, the rest should be a file name to read the json data from.")
	pflag.Parse()

	union := []map[string]interface{}{template.Options}

	var bdatas []byte
	if strings.HasPrefix(*datas, "@") {
		dat, err := ioutil.ReadFile(strings.TrimPrefix(*datas, "@"))
		if err != nil {
			fmt.Println("Bad data file: ", err)
			os.Exit(1)
		}
		bdatas = dat
	} else if strings.HasPrefix(*datas, "{") {
		bdatas = []byte(*datas)
	} else if *datas != "" {
		fmt.Println("Unsupport data format, expect json or @file.")
		os.Exit(1)
	}
	if len(bdatas) > 2 {
		js := map[string]interface{}{}
		if err := json.Unmarshal(bdatas, &js); err != nil {
			fmt.Println("Error to parse data:", err)
			os.Exit(1)
		}
		union = append(union, js)
	}

	conf, err := template.Render(template.MergeOptions(union...))
	if err != nil {
		fmt.Println("Error, to generate config file:", err)
		os.Exit(1)
	}

	if err := ioutil.WriteFile(*path, []byte(conf), 0644); err != nil {
		fmt.Println("Error, to write config file:", err)
		os.Exit(1)
	}
}
