// Command panelseg splits a manga page into panels and prints them as JSON.
//
// The page is read as base64 from the first argument or from stdin:
//
//	panelseg "$(base64 -w0 page.png)"
//	base64 -w0 page.png | panelseg -preset classic
//	panelseg -file page.png -boxes
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"panel-segmenter/internal/config"
	"panel-segmenter/internal/cv"
	"panel-segmenter/internal/imageio"
	"panel-segmenter/internal/order"
	"panel-segmenter/internal/segment"
	"panel-segmenter/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, nil))
}

// run executes the command and returns the exit code. A nil extractor
// selects OpenCV with the configured masks.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer, ex segment.Extractor) int {
	fs := flag.NewFlagSet("panelseg", flag.ContinueOnError)
	fs.SetOutput(stderr)
	preset := fs.String("preset", "", "Parameter preset: improved or classic (default improved)")
	configPath := fs.String("config", "", "YAML configuration file applied over -preset")
	quality := fs.Int("quality", 0, "JPEG quality of panel images (1-100)")
	direction := fs.String("direction", "", "Reading direction: rtl or ltr")
	file := fs.String("file", "", "Read the page from an image file instead of base64")
	boxes := fs.Bool("boxes", false, "Only report bounding boxes, no panel images")
	debug := fs.Bool("debug", false, "Log pipeline stages to stderr")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	cfg, err := loadConfig(*preset, *configPath, *quality, *direction)
	if err != nil {
		return fail(stdout, err)
	}

	if ex == nil {
		ex = cv.New(cfg.Masks)
	}
	opts := []segment.Option{}
	if *debug {
		opts = append(opts, segment.WithLogger(log.New(stderr, "", log.LstdFlags)))
	}
	if *boxes {
		opts = append(opts, segment.WithBoxesOnly())
	}
	p, err := segment.New(ex, cfg.Params, opts...)
	if err != nil {
		return fail(stdout, err)
	}

	var res *segment.Result
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return fail(stdout, err)
		}
		img, _, err := imageio.Decode(data)
		if err != nil {
			return fail(stdout, err)
		}
		res = p.SegmentImage(img)
	} else {
		input, err := readInput(fs.Args(), stdin)
		if err != nil {
			return fail(stdout, err)
		}
		res = p.SegmentBase64(input)
	}

	if err := writeJSON(stdout, res); err != nil {
		fmt.Fprintf(stderr, "write result: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(preset, path string, quality int, direction string) (config.Config, error) {
	var cfg config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadWith(path, preset)
	} else {
		cfg, err = config.Default(preset)
	}
	if err != nil {
		return cfg, err
	}

	if quality != 0 {
		cfg.Params = cfg.Params.WithJPEGQuality(quality)
	}
	if direction != "" {
		d, err := order.ParseDirection(direction)
		if err != nil {
			return cfg, err
		}
		cfg.Params = cfg.Params.WithDirection(d)
	}
	return cfg, nil
}

// readInput returns the first argument, or all of stdin when there is none.
func readInput(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(data))
	if input == "" {
		return "", errors.New("no input provided")
	}
	return input, nil
}

// fail prints the error envelope and returns the failure exit code.
func fail(stdout io.Writer, err error) int {
	_ = writeJSON(stdout, segment.ErrorResult(err))
	return 1
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
