package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v2"

	"github.com/rudderlabs/rudder-go-kit/config"
	"github.com/rudderlabs/rudder-go-kit/logger"

	"github.com/Neumenon/replica/replica"
)

type runner struct {
	conf *config.Config
	log  logger.Logger
}

// Clone prints a clone of the input document.
func (r *runner) Clone(c *cli.Context) error {
	bridge := r.bridgeOpts(c)
	src, err := r.readDocument(c, bridge)
	if err != nil {
		return err
	}
	dst, err := r.clone(c, src)
	if err != nil {
		return err
	}

	out, err := replica.ToJSONWithOpts(dst, bridge)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s\n", out)
	return err
}

// Verify clones the input and checks the copy against the source.
func (r *runner) Verify(c *cli.Context) error {
	src, err := r.readDocument(c, r.bridgeOpts(c))
	if err != nil {
		return err
	}
	dst, err := r.clone(c, src)
	if err != nil {
		return err
	}

	if !replica.Equal(src, dst) {
		return errors.New("clone is not equal to its source")
	}
	if path, shared := replica.SharedNode(src, dst); shared {
		return fmt.Errorf("clone shares a mutable node with its source at %s", path)
	}

	fingerprint := replica.FingerprintHex(dst)
	if fingerprint != replica.FingerprintHex(src) {
		return errors.New("clone fingerprint differs from its source")
	}
	r.log.Debugn("verified clone",
		logger.NewStringField("fingerprint", fingerprint),
		logger.NewStringField("kind", dst.Kind().String()),
	)
	_, err = fmt.Fprintf(c.App.Writer, "ok %s\n", fingerprint)
	return err
}

// Fingerprint prints the hex fingerprint of the input document.
func (r *runner) Fingerprint(c *cli.Context) error {
	v, err := r.readDocument(c, r.bridgeOpts(c))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, replica.FingerprintHex(v))
	return err
}

// Canon prints the canonical text of the input document.
func (r *runner) Canon(c *cli.Context) error {
	v, err := r.readDocument(c, r.bridgeOpts(c))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, replica.Canonical(v))
	return err
}

func (r *runner) clone(c *cli.Context, src *replica.Value) (*replica.Value, error) {
	opts, err := r.cloneOpts(c)
	if err != nil {
		return nil, err
	}
	dst, err := replica.CloneWithOpts(src, opts)
	if err != nil {
		return nil, err
	}
	r.log.Debugn("cloned document",
		logger.NewIntField("maxDepth", int64(opts.MaxDepth)),
		logger.NewStringField("cycles", opts.Cycles.String()),
	)
	return dst, nil
}

// cloneOpts reads guard options from config, overridden by flags.
func (r *runner) cloneOpts(c *cli.Context) (replica.CloneOpts, error) {
	maxDepth := r.conf.GetInt("Clone.maxDepth", 0)
	if c.IsSet("max-depth") {
		maxDepth = c.Int("max-depth")
	}
	if maxDepth < 0 {
		return replica.CloneOpts{}, fmt.Errorf("max depth must not be negative, got %d", maxDepth)
	}

	policy := r.conf.GetString("Clone.cyclePolicy", "recurse")
	if c.IsSet("cycles") {
		policy = c.String("cycles")
	}
	cycles, err := replica.ParseCyclePolicy(policy)
	if err != nil {
		return replica.CloneOpts{}, err
	}
	return replica.CloneOpts{MaxDepth: maxDepth, Cycles: cycles}, nil
}

func (r *runner) bridgeOpts(c *cli.Context) replica.BridgeOpts {
	opts := replica.BridgeOpts{
		Extended: r.conf.GetBool("Clone.extendedJSON", false),
		Pretty:   r.conf.GetBool("Clone.pretty", false),
	}
	if c.IsSet("extended") {
		opts.Extended = c.Bool("extended")
	}
	if c.IsSet("pretty") {
		opts.Pretty = c.Bool("pretty")
	}
	return opts
}

// readDocument reads JSON from the file argument or stdin and narrows it
// to --path when given.
func (r *runner) readDocument(c *cli.Context, opts replica.BridgeOpts) (*replica.Value, error) {
	source := c.Args().First()

	var (
		data []byte
		err  error
	)
	if source == "" || source == "-" {
		source = "stdin"
		data, err = io.ReadAll(c.App.Reader)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	if path := c.String("path"); path != "" {
		res := gjson.GetBytes(data, path)
		if !res.Exists() {
			return nil, fmt.Errorf("path %q matches nothing in %s", path, source)
		}
		data = []byte(res.Raw)
	}

	v, err := replica.FromJSONWithOpts(data, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	r.log.Debugn("read document",
		logger.NewStringField("source", source),
		logger.NewIntField("bytes", int64(len(data))),
		logger.NewStringField("kind", v.Kind().String()),
	)
	return v, nil
}
