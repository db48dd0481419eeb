package commands

import (
	"context"
	"flag"

	"github.com/maksimkurb/geoip-allow/src/internal/allowlist"
	"github.com/maksimkurb/geoip-allow/src/internal/config"
	"github.com/maksimkurb/geoip-allow/src/internal/delivery"
)

func CreateReadCommand() *ReadCommand {
	rc := &ReadCommand{
		fs: flag.NewFlagSet("read", flag.ExitOnError),
	}

	rc.fs.BoolVar(&rc.Force, "force", false, "Rebuild the block even if it was generated today")
	rc.fs.BoolVar(&rc.Preview, "preview", false, "Print the file as HTML-escaped <pre> block instead of a report")
	rc.fs.StringVar(&rc.DownloadTo, "download-to", "", "Also save a copy of the resulting file to this path")

	return rc
}

type ReadCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config

	Force      bool
	Preview    bool
	DownloadTo string
}

func (r *ReadCommand) Name() string {
	return r.fs.Name()
}

func (r *ReadCommand) Init(args []string, ctx *AppContext) error {
	r.ctx = ctx

	if err := r.fs.Parse(args); err != nil {
		return err
	}

	if cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath); err != nil {
		return err
	} else {
		r.cfg = cfg
	}

	return nil
}

func (r *ReadCommand) Run() error {
	builder := newBuilder(r.cfg, r.ctx)

	res, err := builder.Read(context.Background(), r.Force)
	if err != nil {
		return err
	}

	if r.DownloadTo != "" && !delivery.IsEmpty(res) {
		if err := delivery.SaveCopy(r.DownloadTo, res.Content); err != nil {
			return err
		}
	}

	return r.present(res)
}

func (r *ReadCommand) present(res *allowlist.BuildResult) error {
	if r.Preview {
		return delivery.WritePreview(r.ctx.stdout(), res)
	}
	return delivery.WriteReport(r.ctx.stdout(), res)
}
