package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"

	"github.com/jask/wizflow/internal/apperrors"
	"github.com/jask/wizflow/internal/database/repository"
)

type categoriesCmd struct {
	typ string
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list categories" }
func (*categoriesCmd) Usage() string {
	return `wizflow categories [-type income|expense]
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.typ, "type", "", "Only list income or expense categories.")
}

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		var filters repository.CategoryFilters
		if c.typ != "" {
			t := repository.CategoryType(c.typ)
			if !t.Valid() {
				return apperrors.Validation("category type %q", c.typ)
			}
			filters.Type = &t
		}
		list, err := s.categories.List(ctx, filters)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, cat := range list {
			kind := "built-in"
			if cat.IsCustom {
				kind = "custom"
			}
			rows = append(rows, []string{strconv.FormatInt(cat.ID, 10), cat.Name, string(cat.Type), kind})
		}
		a.printf("%s\n%s", headingStyle.Render("Categories"), table([]string{"ID", "Name", "Type", "Kind"}, rows))
		return nil
	})
}

type categoryAddCmd struct {
	name  string
	typ   string
	icon  string
	color string
	sort  int
}

func (*categoryAddCmd) Name() string     { return "category-add" }
func (*categoryAddCmd) Synopsis() string { return "create a custom category" }
func (*categoryAddCmd) Usage() string {
	return `wizflow category-add -name <name> -type income|expense [-sort <n>]
`
}

func (c *categoryAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Category name.")
	f.StringVar(&c.typ, "type", string(repository.CategoryExpense), "income or expense.")
	f.StringVar(&c.icon, "icon", "pricetag", "Icon name.")
	f.StringVar(&c.color, "color", "#cba6f7", "Display color.")
	f.IntVar(&c.sort, "sort", 50, "Sort order, ascending.")
}

func (c *categoryAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		id, err := s.categories.Create(ctx, repository.NewCategory{
			Name: c.name, Icon: c.icon, Color: c.color, Type: repository.CategoryType(c.typ),
			SortOrder: c.sort, IsCustom: true,
		})
		if err != nil {
			return err
		}
		a.printf("Created category %s (id %d)\n", accentStyle.Render(c.name), id)
		return nil
	})
}

type categoryDeleteCmd struct {
	force bool
}

func (*categoryDeleteCmd) Name() string     { return "category-delete" }
func (*categoryDeleteCmd) Synopsis() string { return "delete a custom category" }
func (*categoryDeleteCmd) Usage() string {
	return `wizflow category-delete [-force] <id>

  Refuses built-in categories and categories still used by transactions unless -force is
  given. Forced deletion leaves those transactions carrying the old category name.
`
}

func (c *categoryDeleteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Delete even if built-in or in use.")
}

var errCategoryInUse = errors.New("category in use")

func (c *categoryDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return runOpen(ctx, args, func(a *app, s *services) error {
		id, err := parseID(f)
		if err != nil {
			return err
		}
		cat, err := s.categories.Get(ctx, id)
		if err != nil {
			return err
		}
		if cat == nil {
			return fmt.Errorf("category %d: %w", id, apperrors.ErrNotFound)
		}
		if !c.force {
			if !cat.IsCustom {
				return apperrors.Validation("%q is a built-in category; use -force to delete it", cat.Name)
			}
			n, err := s.categories.UsageCount(ctx, cat.Name)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: %q is used by %d transactions; use -force to delete it anyway", errCategoryInUse, cat.Name, n)
			}
		}
		if err := s.categories.Delete(ctx, id); err != nil {
			return err
		}
		a.printf("Deleted category %s\n", cat.Name)
		return nil
	})
}
