// Command outbreaksim runs a Monte Carlo branching-process outbreak
// simulation and writes per-path and aggregate binary records (§6).
package main

import (
	"log"
	"os"
	"runtime"
	"time"

	outbreaksim "github.com/kentwait/outbreaksim"
)

const usage = `outbreaksim: Monte Carlo branching-process outbreak simulator

Usage: outbreaksim [--name value | --name=value | --name:value] ...

Options are documented in SPEC_FULL.md §6; a configuration file of the
same --name value tokens, one per line, with # comments, can be
included via --config path, nested up to 16 levels deep.
`

func main() {
	cfg := outbreaksim.NewConfig()
	help, err := outbreaksim.ParseArgs(os.Args[1:], cfg)
	if err != nil {
		log.Fatal(err)
	}
	if help {
		os.Stdout.WriteString(usage)
		os.Exit(0)
	}

	pars, err := cfg.ToModelParameters()
	if err != nil {
		log.Fatal(err)
	}
	runCfg := cfg.ToRunConfig()
	if cfg.Seed == nil {
		runCfg.Seed = uint64(time.Now().UTC().UnixNano())
	}
	runtime.GOMAXPROCS(runCfg.NThreads)

	outPath := "outbreaksim.out"
	if cfg.Out != nil {
		outPath = *cfg.Out
	}
	outFile, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer outFile.Close()

	var ctFile *os.File
	if runCfg.Trace {
		ctPath := outPath + ".ct"
		if cfg.CTOut != nil {
			ctPath = *cfg.CTOut
		}
		ctFile, err = os.OpenFile(ctPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			log.Fatal(err)
		}
		defer ctFile.Close()
	}

	driver := outbreaksim.NewDriver(pars, runCfg, outFile, ctFile)

	if cfg.CTSQLite != nil {
		sqliteWriter, err := outbreaksim.OpenSQLiteCTWriter(*cfg.CTSQLite)
		if err != nil {
			log.Fatal(err)
		}
		defer sqliteWriter.Close()
		driver.CTSQLite = sqliteWriter
	}

	log.Printf("starting run: npaths=%d nthreads=%d nsetsperthread=%d seed=%d\n",
		runCfg.NPaths, runCfg.NThreads, runCfg.NSetsPerThread, runCfg.Seed)
	start := time.Now()

	result, err := driver.Run()
	if err != nil {
		log.Fatal(err)
	}
	if err := outbreaksim.WriteAggregate(outFile, result); err != nil {
		log.Fatal(err)
	}
	if cfg.CSVOut != nil {
		csvFile, err := os.OpenFile(*cfg.CSVOut, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			log.Fatal(err)
		}
		defer csvFile.Close()
		if err := outbreaksim.WriteAggregateCSV(csvFile, result); err != nil {
			log.Fatal(err)
		}
	}

	log.Printf("completed %d paths in %s\n", result.NPaths, time.Since(start))
}
