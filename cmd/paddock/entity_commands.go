package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"paddock/internal/config"
	"paddock/internal/entity"
	"paddock/internal/store"
)

func newEntityCommand(ctx *commandContext) *cobra.Command {
	entityCmd := &cobra.Command{
		Use:   "entity",
		Short: "Inspect canonical entities and their aliases",
	}

	entityCmd.AddCommand(newEntityListCommand(ctx))
	entityCmd.AddCommand(newEntityShowCommand(ctx))
	entityCmd.AddCommand(newEntityPromoteAliasCommand(ctx))
	entityCmd.AddCommand(newEntityStatsCommand(ctx))

	return entityCmd
}

func newEntityListCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List canonical entities of one type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := entity.ParseType(typeFlag)
			if err != nil {
				return usageError("%v", err)
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store, _ *slog.Logger) error {
				entities, err := st.ListEntities(cmd.Context(), typ)
				if err != nil {
					return err
				}
				if asJSON {
					if entities == nil {
						entities = []entity.Entity{}
					}
					return writeJSON(cmd, entities)
				}
				if len(entities) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No %s entities\n", typ)
					return nil
				}
				rows := make([][]string, 0, len(entities))
				for _, e := range entities {
					rows = append(rows, []string{e.ID, e.Name, entityDetail(e), formatAge(e.CreatedAt)})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Details", "Created"},
					rows,
					nil,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Entity type (driver, team, circuit, round)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entities as JSON")
	return cmd
}

// entityDetail summarizes the identifying attributes of e in one cell.
func entityDetail(e entity.Entity) string {
	var parts []string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			parts = append(parts, label+" "+value)
		}
	}
	switch {
	case e.Attributes.Driver != nil:
		d := e.Attributes.Driver
		if d.Number > 0 {
			add("#", strconv.Itoa(d.Number))
		}
		add("code", d.Abbreviation)
		add("nat", d.Nationality)
	case e.Attributes.Team != nil:
		t := e.Attributes.Team
		add("short", t.ShortName)
		if t.ActiveFrom > 0 {
			to := "present"
			if t.ActiveTo > 0 {
				to = strconv.Itoa(t.ActiveTo)
			}
			add("years", fmt.Sprintf("%d-%s", t.ActiveFrom, to))
		}
	case e.Attributes.Circuit != nil:
		c := e.Attributes.Circuit
		add("in", c.Location)
		add("country", c.Country)
	case e.Attributes.Round != nil:
		r := e.Attributes.Round
		if r.Season > 0 {
			add("season", strconv.Itoa(r.Season))
		}
		if r.RoundNumber > 0 {
			add("round", strconv.Itoa(r.RoundNumber))
		}
		add("from", r.StartDate)
	}
	return orDash(strings.Join(parts, ", "))
}

type entityView struct {
	Entity  *entity.Entity `json:"entity"`
	Aliases []entity.Alias `json:"aliases"`
}

func newEntityShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an entity and every source alias mapped to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store, _ *slog.Logger) error {
				e, err := st.GetEntity(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				aliases, err := st.AliasesForEntity(cmd.Context(), e.ID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, entityView{Entity: e, Aliases: aliases})
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderKeyValues([][2]string{
					{"ID", e.ID},
					{"Type", string(e.Type)},
					{"Name", e.Name},
					{"Details", entityDetail(*e)},
					{"Created", formatAge(e.CreatedAt)},
					{"Updated", formatAge(e.UpdatedAt)},
				}))
				if len(aliases) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(aliases))
				for _, a := range aliases {
					rows = append(rows, []string{strconv.FormatInt(a.ID, 10), a.Source, a.RawKey, a.RawName, formatAge(a.LastSeen)})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Alias", "Source", "Raw Key", "Raw Name", "Last Seen"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the entity and aliases as JSON")
	return cmd
}

func newEntityPromoteAliasCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "promote-alias <alias-id>",
		Short: "Rename an entity to the raw name of one of its aliases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aliasID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || aliasID <= 0 {
				return usageError("alias id %q must be a positive integer", args[0])
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store, _ *slog.Logger) error {
				e, err := st.PromoteAlias(cmd.Context(), aliasID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s %s to %q\n", e.Type, e.ID, e.Name)
				return nil
			})
		},
	}
}

func newEntityStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count entities, aliases and pending matches per type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store, _ *slog.Logger) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, stats)
				}
				rows := make([][]string, 0, len(entity.AllTypes()))
				for _, typ := range entity.AllTypes() {
					pending := stats.Pending[typ]
					rows = append(rows, []string{
						string(typ),
						formatCount(stats.Entities[typ]),
						formatCount(stats.Aliases[typ]),
						formatCount(pending[store.StatusPending]),
						formatCount(pending[store.StatusApproved]),
						formatCount(pending[store.StatusRejected]),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Type", "Entities", "Aliases", "Pending", "Approved", "Rejected"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print counts as JSON")
	return cmd
}
