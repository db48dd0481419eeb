package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/maksimkurb/geoip-allow/src/internal/config"
	"github.com/maksimkurb/geoip-allow/src/internal/delivery"
)

func CreatePreviewCommand() *PreviewCommand {
	pc := &PreviewCommand{
		fs: flag.NewFlagSet("preview", flag.ExitOnError),
	}

	pc.fs.BoolVar(&pc.Report, "report", false, "Print the sources table after the block")

	return pc
}

// PreviewCommand renders a new block to stdout without touching the target file.
type PreviewCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config

	Report bool
}

func (p *PreviewCommand) Name() string {
	return p.fs.Name()
}

func (p *PreviewCommand) Init(args []string, ctx *AppContext) error {
	p.ctx = ctx

	if err := p.fs.Parse(args); err != nil {
		return err
	}

	if cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath); err != nil {
		return err
	} else {
		p.cfg = cfg
	}

	return nil
}

func (p *PreviewCommand) Run() error {
	res, err := newBuilder(p.cfg, p.ctx).Preview(context.Background())
	if err != nil {
		return err
	}

	out := p.ctx.stdout()
	fmt.Fprint(out, res.Content)

	if p.Report {
		table, err := delivery.SourcesTable(res.Sources)
		if err != nil {
			return err
		}
		fmt.Fprint(out, "\n"+table)
	}
	return nil
}
