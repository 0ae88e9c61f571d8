// Command mvscript learns how the motion in a video maps onto a scripted
// action timeline and generates timelines for new footage.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/mvscript/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "train":
		err = runTrain(args)
	case "generate":
		err = runGenerate(args)
	case "report":
		err = runReport(args)
	case "runs":
		err = runList(args, os.Stdout)
	case "version":
		fmt.Println(version.String("mvscript"))
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func printUsage() {
	fmt.Println(`mvscript - motion-vector driven action timelines

Usage: mvscript <command> [options]

Commands:
  train      Learn rulesets from a .mvs file and its reference timeline
  generate   Generate a timeline for a .mvs file
  report     Compare a generated timeline against a reference
  runs       List stored training runs
  version    Show mvscript version
  help       Show this help message

Common Flags:
  -config <file>   Tuning config (.json, .yaml or .yml)
  -v               Verbose diagnostics

Examples:
  # Train on a scripted clip and keep the rules
  mvscript train -mvs clip.mvs -ref clip.json -db runs.db

  # Train and generate in one pass, with report artefacts
  mvscript generate -mvs clip.mvs -ref clip.json -out clip.generated.json -report out/

  # Generate for new footage with the latest rules trained on clip.mvs
  mvscript generate -mvs other.mvs -db runs.db -from clip.mvs -out other.json

  # Score a timeline
  mvscript report -ref clip.json -gen clip.generated.json -out out/`)
}
