package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/maksimkurb/geoip-allow/src/internal/config"
	"github.com/maksimkurb/geoip-allow/src/internal/delivery"
)

func CreateDeleteCommand() *DeleteCommand {
	return &DeleteCommand{
		fs: flag.NewFlagSet("delete", flag.ExitOnError),
	}
}

type DeleteCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config
}

func (d *DeleteCommand) Name() string {
	return d.fs.Name()
}

func (d *DeleteCommand) Init(args []string, ctx *AppContext) error {
	d.ctx = ctx

	if err := d.fs.Parse(args); err != nil {
		return err
	}

	if cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath); err != nil {
		return err
	} else {
		d.cfg = cfg
	}

	return nil
}

func (d *DeleteCommand) Run() error {
	_, err := newBuilder(d.cfg, d.ctx).Delete(context.Background())
	fmt.Fprintln(d.ctx.stdout(), delivery.DeleteMessage(err == nil))
	return err
}
