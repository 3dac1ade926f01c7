package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mitya57/markdown/extensions"
	markdown "github.com/mitya57/markdown/markdown"
)

var debug bool

var errWatchNeedsFile = errors.New("watch mode needs an input file, not standard input")

// knownExtensions maps the names accepted by the --extension flag to their
// constructors.
var knownExtensions = map[string]func() markdown.Extension{
	"fencedcode": func() markdown.Extension { return &extensions.FencedCode{} },
	"meta":       func() markdown.Extension { return &extensions.Meta{} },
}

func buildEngine(c *cli.Context, sugar *zap.SugaredLogger) *markdown.Markdown {
	var exts []markdown.Extension
	for _, name := range c.StringSlice("extension") {
		ctor, ok := knownExtensions[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			sugar.Warnw("unknown extension ignored", "name", name)
			continue
		}
		exts = append(exts, ctor())
	}

	md := markdown.New(markdown.SafeMode(c.String("safe")), exts...)
	md.SetLogger(sugar)
	return md
}

func readInput(inputFileName string) (string, error) {
	var data []byte
	var err error
	if inputFileName == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(inputFileName)
	}
	if err != nil {
		return "", err
	}
	// Strip a leading byte order mark if the file carries one.
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

func convertFile(md *markdown.Markdown, inputFileName, outputFileName string) error {
	source, err := readInput(inputFileName)
	if err != nil {
		return err
	}

	html := md.Convert(source)

	if outputFileName == "-" {
		fmt.Println(html)
		return nil
	}
	return os.WriteFile(outputFileName, []byte(html+"\n"), 0664)
}

// processWatch checks periodically if the input file has been modified, and
// if so converts it again and rewrites the output file.
func processWatch(md *markdown.Markdown, inputFileName, outputFileName string, sugar *zap.SugaredLogger) error {

	var oldTimestamp time.Time

	// Loop forever
	for {
		info, err := os.Stat(inputFileName)
		if err != nil {
			return err
		}
		currentTimestamp := info.ModTime()

		if oldTimestamp.Before(currentTimestamp) {
			oldTimestamp = currentTimestamp
			sugar.Infow("processing", "input", inputFileName, "output", outputFileName)
			md.Reset()
			if err := convertFile(md, inputFileName, outputFileName); err != nil {
				return err
			}
		}

		// Check again in one second
		time.Sleep(1 * time.Second)
	}
}

// process is the main entry point of the program
func process(c *cli.Context) error {

	// Read from stdin unless a file name is given
	inputFileName := "-"

	outputFileName := c.String("output")

	debug = c.Bool("debug")

	var z *zap.Logger
	var err error

	// Setup the logging system
	if debug {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	sugar := z.Sugar()
	defer sugar.Sync()

	if c.Args().Present() {
		inputFileName = c.Args().First()
	}

	// Generate the output file name
	if len(outputFileName) == 0 {
		if inputFileName == "-" {
			outputFileName = "-"
		} else {
			ext := path.Ext(inputFileName)
			if len(ext) == 0 {
				outputFileName = inputFileName + ".html"
			} else {
				outputFileName = strings.Replace(inputFileName, ext, ".html", 1)
			}
		}
	}

	md := buildEngine(c, sugar)

	// This is useful for development.
	// If the user specified to watch, loop forever processing the input file when modified
	if c.Bool("watch") {
		if inputFileName == "-" {
			return errWatchNeedsFile
		}
		return processWatch(md, inputFileName, outputFileName, sugar)
	}

	return convertFile(md, inputFileName, outputFileName)
}

func main() {

	app := &cli.App{
		Name:     "markdown",
		Version:  "v0.1",
		Compiled: time.Now(),
		Usage:    "convert a Markdown document to HTML",
		UsageText: "markdown [options] [INPUT_FILE] (default is to read standard input " +
			"and write to standard output)",
		Action: process,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write html to `FILE` (default is input file name with extension .html)",
			},
			&cli.StringFlag{
				Name:    "safe",
				Aliases: []string{"s"},
				Usage:   "treat raw HTML as untrusted: remove, escape or replace",
			},
			&cli.StringSliceFlag{
				Name:    "extension",
				Aliases: []string{"x"},
				Usage:   "enable an extension (fencedcode, meta); repeatable",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "run in debug mode",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "watch the file for changes",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		panic(err)
	}

}
