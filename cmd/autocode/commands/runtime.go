package commands

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/config"
	"github.com/sghaida/autocode/dispatch"
	"github.com/sghaida/autocode/loader"
	"github.com/sghaida/autocode/logger"
	"github.com/sghaida/autocode/oracle"
	"gopkg.in/yaml.v3"
)

// pipeline is the generation stack built from one configuration.
type pipeline struct {
	oracle     *oracle.Packages
	dispatcher *dispatch.Dispatcher
	loader     *loader.Loader
}

func newPipeline(cfg *config.Config, opts ...loader.Option) (*pipeline, error) {
	o := oracle.NewPackages(cfg.SourceDir)

	d, err := dispatch.New(cfg.Dispatch(), o, dispatch.WithLogger(logger.Named("dispatch")))
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up dispatcher")
	}

	opts = append([]loader.Option{
		loader.WithChecker(o),
		loader.WithLogger(logger.Named("loader")),
	}, opts...)
	ld := loader.New(d, o, opts...)
	return &pipeline{oracle: o, dispatcher: d, loader: ld}, nil
}

func (p *pipeline) scanner() (*loader.Scanner, error) {
	return loader.NewScanner(p.loader, p.dispatcher.Store().Root(), loader.WithScanLogger(logger.Named("scanner")))
}

const (
	outputText = "text"
	outputYAML = "yaml"
)

func validOutput(format string) error {
	switch format {
	case outputText, outputYAML:
		return nil
	default:
		return errors.Newf("unknown output format %q (want %s or %s)", format, outputText, outputYAML)
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode yaml")
	}
	return enc.Close()
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d):\n", title, len(items))
	for _, it := range items {
		fmt.Fprintf(w, "  %s\n", it)
	}
}
