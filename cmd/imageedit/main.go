package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"imageeditor/internal/imagegen"
	"imageeditor/internal/infra"
	"imageeditor/internal/providers/gemini"
)

func main() {
	_ = godotenv.Load()

	err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "imageedit: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	in      string
	ref     string
	prompt  string
	out     string
	key     string
	timeout time.Duration
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("imageedit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", "", "image to edit")
	fs.StringVar(&opts.ref, "ref", "", "optional reference image")
	fs.StringVar(&opts.prompt, "prompt", "", "edit instruction")
	fs.StringVar(&opts.out, "out", "edited.png", "where to write the edited image")
	fs.StringVar(&opts.key, "key", "", "API key (fallbacks to GOOGLE_API_KEY / GEMINI_API_KEY)")
	fs.DurationVar(&opts.timeout, "timeout", 3*time.Minute, "overall deadline")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if strings.TrimSpace(opts.in) == "" {
		return opts, errors.New("-in is required")
	}
	if opts.timeout <= 0 {
		return opts, errors.New("-timeout must be positive")
	}
	return opts, nil
}

// run edits one image. Everything that can fail locally is checked before
// the model client is built.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	key := strings.TrimSpace(opts.key)
	if key == "" {
		key = cfg.GeminiAPIKey
	}
	if key == "" {
		return errors.New("API key is required via -key or environment")
	}

	req := imagegen.EditRequest{Instruction: opts.prompt}
	if req.Primary, err = readImage(opts.in); err != nil {
		return err
	}
	if strings.TrimSpace(opts.ref) != "" {
		ref, err := readImage(opts.ref)
		if err != nil {
			return err
		}
		req.Secondary = &ref
	}

	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "imageedit").Logger()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	client, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:     key,
		BaseURL:    cfg.GeminiBaseURL,
		HTTPClient: &http.Client{Timeout: opts.timeout},
		Logger:     &logger,
	})
	if err != nil {
		return fmt.Errorf("configure gemini client: %w", err)
	}
	invoker := imagegen.NewInvoker(imagegen.Options{
		APIKey:    key,
		Generator: client,
		Logger:    &logger,
		MaxPixels: cfg.MaxImagePixels,
		Timeout:   opts.timeout,
	})

	res, err := invoker.Edit(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", imagegen.Detail(err), err)
	}

	if err := os.WriteFile(opts.out, res.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	fmt.Fprintf(stdout, "wrote %s (%d bytes, %s, stage %s after %d attempt(s))\n", opts.out, len(res.Data), res.MIMEType, res.Stage, res.Attempts)
	return nil
}

func readImage(path string) (imagegen.UploadedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return imagegen.UploadedImage{}, fmt.Errorf("read %s: %w", path, err)
	}
	return imagegen.UploadedImage{Data: data, Filename: filepath.Base(path)}, nil
}
