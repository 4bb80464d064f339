package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	EWFLogger "github.com/aarsakian/EWF_Reader/logger"
	VMDKLogger "github.com/aarsakian/VMDK_Reader/logger"
	"github.com/spf13/afero"

	"github.com/aarsakian/FileRecovery/config"
	"github.com/aarsakian/FileRecovery/driver"
	"github.com/aarsakian/FileRecovery/exporter"
	"github.com/aarsakian/FileRecovery/history"
	"github.com/aarsakian/FileRecovery/img"
	"github.com/aarsakian/FileRecovery/logger"
	"github.com/aarsakian/FileRecovery/probe"
	"github.com/aarsakian/FileRecovery/reporter"
	"github.com/aarsakian/FileRecovery/sectorreader"
)

const layoutFile = "recovery.yaml"

func fatal(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "[-] %s\n", msg)
	}
	os.Exit(1)
}

func parseFlags() config.Config {
	cfg := config.Default()

	flags := flag.NewFlagSet("FileRecovery", flag.ContinueOnError)
	flags.StringVar(&cfg.DrivePath, "d", "", "source volume e.g. F: or \\\\.\\F:")
	flags.StringVar(&cfg.DrivePath, "drive", "", "source volume e.g. F: or \\\\.\\F:")
	flags.StringVar(&cfg.EvidencePath, "e", "", "path to evidence image (.e01 or .vmdk)")
	flags.StringVar(&cfg.EvidencePath, "evidence", "", "path to evidence image (.e01 or .vmdk)")
	flags.BoolVar(&cfg.Recover, "r", false, "write reconstructed files to the output folder")
	flags.BoolVar(&cfg.Recover, "recover", false, "write reconstructed files to the output folder")
	flags.BoolVar(&cfg.Analyze, "a", false, "run corruption analysis on each candidate")
	flags.BoolVar(&cfg.Analyze, "analyze", false, "run corruption analysis on each candidate")

	noLog := flags.Bool("l", false, "suppress the CSV file data log")
	flags.BoolVar(noLog, "no-log", false, "suppress the CSV file data log")

	targetCluster := flags.Uint("cluster", 0, "recover only the file starting at this cluster")
	targetSize := flags.Uint64("size", 0, "file size in bytes of the targeted file")
	hash := flags.String("hash", "", "hash recovered files with md5 or sha1")
	logActive := flags.Bool("log", false, "enable logging to a file")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg.CreateFileDataLog = !*noLog
	cfg.TargetCluster = uint32(*targetCluster)
	cfg.TargetFileSize = *targetSize
	cfg.Hash = strings.ToUpper(*hash)

	if cfg.Hash != "" && cfg.Hash != "MD5" && cfg.Hash != "SHA1" {
		fmt.Fprintf(os.Stderr, "[-] only md5 or sha1 are supported, not %s\n", *hash)
		flags.Usage()
		os.Exit(1)
	}

	if cfg.DrivePath == "" && cfg.EvidencePath == "" {
		flags.Usage()
		os.Exit(1)
	}

	if *logActive {
		logfilename := "logs" + time.Now().Format("2006-01-02T15_04_05") + ".txt"
		logger.InitializeLogger(true, logfilename)
		EWFLogger.InitializeLogger(true, logfilename)
		VMDKLogger.InitializeLogger(true, logfilename)
	}

	cfg, err := config.LoadLayout(afero.NewOsFs(), layoutFile, cfg)
	if err != nil {
		fatal("bad defaults file", err)
	}
	return cfg
}

func openVolume(cfg config.Config) img.DiskReader {
	if cfg.EvidencePath != "" {
		handler, err := img.GetEvidenceHandler(cfg.EvidencePath)
		if err != nil {
			fatal("cannot open evidence image", err)
		}
		return handler
	}

	handler, err := img.GetHandler(cfg.DrivePath)
	if err != nil {
		if errors.Is(err, img.ErrAccessDenied) {
			fatal("cannot open drive", img.ErrAccessDenied)
		}
		fatal("cannot open drive", err)
	}
	return handler
}

func main() {
	cfg := parseFlags()

	reader := sectorreader.New(openVolume(cfg))
	defer reader.Close()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupts
		reader.Close()
		os.Exit(1)
	}()

	engine, err := probe.Detect(reader)
	if err != nil {
		fatal("filesystem probe failed", err)
	}

	exp := exporter.Exporter{Fs: afero.NewOsFs(), Location: cfg.OutputFolder, Hash: cfg.Hash}
	if cfg.Recover {
		if err := exp.Prepare(); err != nil {
			fatal("cannot create output folder", err)
		}
	}

	rd := driver.RecoveryDriver{
		Engine:   engine,
		Reader:   reader,
		Config:   cfg,
		Exporter: exp,
		Reporter: reporter.Reporter{Out: os.Stdout, ShowProgress: true},
		History:  history.New(),
		Input:    os.Stdin,
	}

	if _, err := rd.Run(); err != nil {
		fatal("recovery run failed", err)
	}
}
