package commands

import (
	"flag"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/maksimkurb/geoip-allow/src/internal/config"
)

func CreateSourcesCommand() *SourcesCommand {
	return &SourcesCommand{
		fs: flag.NewFlagSet("sources", flag.ExitOnError),
	}
}

// SourcesCommand lists the range sources with configured overrides applied.
type SourcesCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config
}

func (s *SourcesCommand) Name() string {
	return s.fs.Name()
}

func (s *SourcesCommand) Init(args []string, ctx *AppContext) error {
	s.ctx = ctx

	if err := s.fs.Parse(args); err != nil {
		return err
	}

	if cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath); err != nil {
		return err
	} else {
		s.cfg = cfg
	}

	return nil
}

func (s *SourcesCommand) Run() error {
	endpoints, err := s.cfg.Endpoints()
	if err != nil {
		return err
	}

	data := pterm.TableData{
		{"Name", "Format", "URL"},
	}
	for _, e := range endpoints {
		data = append(data, []string{e.Name, string(e.Format), e.URL})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render sources table: %w", err)
	}
	fmt.Fprintln(s.ctx.stdout(), table)
	return nil
}
