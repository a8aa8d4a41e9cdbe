package scenario

import (
	"strings"

	"github.com/danmuck/cellctl/internal/cell"
	"github.com/danmuck/cellctl/internal/record"
	"github.com/rs/zerolog"
)

// Owner labels used by the demonstration flow.
const (
	OwnerMain       = "main"
	OwnerComponentA = "component-a"
	OwnerComponentB = "component-b"
)

// Config describes the record the demonstration runs against.
type Config struct {
	RecordID     string
	InitialValue int
	SetTo        int
}

// DefaultConfig returns the stock demonstration input.
func DefaultConfig() Config {
	return Config{
		RecordID:     "ConfigItem",
		InitialValue: 10,
		SetTo:        25,
	}
}

// WithDefaults fills blank fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	out := c
	if strings.TrimSpace(out.RecordID) == "" {
		out.RecordID = DefaultConfig().RecordID
	}
	return out
}

// Run drives the ownership demonstration in nine ordered moments: one origin
// owner builds the record, two component owners attach by cloning, component
// B mutates under an exclusive lease, every owner observes the shared result,
// and teardown destroys the record with the final release. Each observable
// event is one line on log, tagged by emitting subsystem: component
// "scenario" for the flow, component "record" for record state.
func Run(cfg Config, log zerolog.Logger) error {
	cfg = cfg.WithDefaults()
	scenLog := log.With().Str("component", "scenario").Logger()
	recLog := log.With().Str("component", "record").Logger()

	moment(scenLog, 1, "setup")
	rec := record.New(cfg.RecordID, cfg.InitialValue, recLog)
	origin := cell.NewWithDestroy(OwnerMain, rec, func(r *record.Record) {
		recLog.Info().Str("record", r.ID()).Int("value", r.Value()).Msg("record destroyed")
	})

	moment(scenLog, 2, "initial observation")
	scenLog.Info().Str("owner", origin.Label()).Int64("owners", origin.Owners()).Msg("owner count")
	if err := display(origin); err != nil {
		return err
	}

	moment(scenLog, 3, "component-a attaches")
	compA := origin.Clone(OwnerComponentA)
	scenLog.Info().Str("owner", compA.Label()).Int64("owners", compA.Owners()).Msg("owner count after clone")
	if err := display(compA); err != nil {
		return err
	}

	moment(scenLog, 4, "component-b attaches")
	compB := origin.Clone(OwnerComponentB)
	scenLog.Info().Str("owner", compB.Label()).Int64("owners", compB.Owners()).Msg("owner count after clone")

	moment(scenLog, 5, "component-b mutates")
	if err := mutate(compB, cfg.SetTo); err != nil {
		return err
	}

	moment(scenLog, 6, "component-b confirms")
	if err := display(compB); err != nil {
		return err
	}

	moment(scenLog, 7, "component-a observes")
	if err := display(compA); err != nil {
		return err
	}

	moment(scenLog, 8, "origin observes")
	if err := display(origin); err != nil {
		return err
	}
	scenLog.Info().Int64("owners", origin.Owners()).Msg("owner count before release")

	moment(scenLog, 9, "cleanup")
	compB.Release()
	compA.Release()
	origin.Release()
	return nil
}

// display observes the record under a read lease from one owner's handle.
func display(h *cell.Handle[*record.Record]) error {
	lease, err := h.Read()
	if err != nil {
		return err
	}
	defer lease.Release()
	lease.Value().Display()
	return nil
}

// mutate applies the set-then-increment step under one exclusive lease.
func mutate(h *cell.Handle[*record.Record], target int) error {
	lease, err := h.Write()
	if err != nil {
		return err
	}
	defer lease.Release()
	rec := lease.Value()
	rec.SetValue(target)
	rec.Increment()
	return nil
}

func moment(log zerolog.Logger, n int, name string) {
	log.Info().Int("moment", n).Str("name", name).Msg("scenario moment")
}
