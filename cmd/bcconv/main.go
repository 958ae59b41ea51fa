// Command bcconv converts Badly Coded images (BCRAW, BCPROG, BCFLAT) to
// PPM, PNG or BMP files.
package main

import (
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"golang.org/x/image/bmp"
	"gopkg.in/yaml.v3"

	"github.com/gen2brain/bcimg"
)

// config holds the settings shared by the YAML config file and the
// command line, flags taking precedence.
type config struct {
	SizeLimit int    `yaml:"size_limit"`
	Format    string `yaml:"format"`
	Compress  bool   `yaml:"compress"`
	Quiet     bool   `yaml:"quiet"`
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

func main() {
	app := &cli.App{
		Name:      "bcconv",
		Usage:     "convert Badly Coded images (BCRAW, BCPROG, BCFLAT) to PPM, PNG or BMP",
		ArgsUsage: "FILE [FILE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write to `FILE` instead of <input>.<ext>; single input only",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "ppm",
				Usage:   "output format: ppm, png or bmp",
			},
			&cli.BoolFlag{
				Name:    "compress",
				Aliases: []string{"z"},
				Usage:   "zstd-compress the output, appending .zst to its name",
			},
			&cli.IntFlag{
				Name:  "size-limit",
				Usage: "maximum width and height accepted for BCFLAT images",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "read defaults from YAML `FILE`",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "suppress per-image log lines",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bcconv:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("no input files; see bcconv --help", 2)
	}

	cfg := &config{Format: "ppm"}
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = loadConfig(path)
		if err != nil {
			return err
		}

		if cfg.Format == "" {
			cfg.Format = "ppm"
		}
	}

	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("compress") {
		cfg.Compress = c.Bool("compress")
	}
	if c.IsSet("size-limit") {
		cfg.SizeLimit = c.Int("size-limit")
	}
	if c.IsSet("quiet") {
		cfg.Quiet = c.Bool("quiet")
	}

	switch cfg.Format {
	case "ppm", "png", "bmp":
	default:
		return fmt.Errorf("unsupported output format %q", cfg.Format)
	}

	if c.String("output") != "" && c.NArg() > 1 {
		return fmt.Errorf("--output cannot be combined with multiple inputs")
	}

	failed := 0
	for _, input := range c.Args().Slice() {
		output := c.String("output")
		if output == "" {
			output = input + "." + cfg.Format
			if cfg.Compress {
				output += ".zst"
			}
		}

		if err := convert(input, output, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", input, err)
			failed++
		}
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed", failed, c.NArg()), 1)
	}

	return nil
}

func convert(input, output string, cfg *config) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := bcimg.DecodeImage(f, &bcimg.Options{SizeLimit: cfg.SizeLimit})
	if err != nil {
		return err
	}

	if !cfg.Quiet {
		logLine(img.LogMessage())
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}

	var w io.Writer = out
	var zw *zstd.Encoder
	if cfg.Compress {
		zw, err = zstd.NewWriter(out)
		if err != nil {
			out.Close()
			return err
		}

		w = zw
	}

	switch cfg.Format {
	case "ppm":
		err = bcimg.EncodePPM(w, img)
	case "png":
		err = png.Encode(w, img)
	case "bmp":
		err = bmp.Encode(w, img)
	}

	if zw != nil {
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
	}

	if cerr := out.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		os.Remove(output)
	}

	return err
}

// logLine writes one per-image message to stdout, dimming it when stdout
// is an interactive terminal.
func logLine(msg string) {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Fprintf(os.Stdout, "\x1b[2m%s\x1b[0m\n", msg)
		return
	}

	fmt.Fprintln(os.Stdout, msg)
}
