package main

import (
	"context"

	"epages-rest-layer/internal/application"
	"epages-rest-layer/internal/domain"

	"github.com/spf13/cobra"
)

var (
	// Shared by the list commands.
	listLimit     int
	listPerPage   int
	listQuery     string
	listSort      string
	listDirection string
	listCategory  string
	listInvisible bool

	locale   *string
	currency *string
)

var localesCmd = &cobra.Command{
	Use:   "locales",
	Short: "Show the shop's default and available locales",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()
		return printStaticList(cmd, application.NewLocales(sc.client, sc.cacheOpts, logger))
	},
}

var currenciesCmd = &cobra.Command{
	Use:   "currencies",
	Short: "Show the shop's default and available currencies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()
		return printStaticList(cmd, application.NewCurrencies(sc.client, sc.cacheOpts, logger))
	},
}

type staticList interface {
	Default(ctx context.Context) (string, error)
	Items(ctx context.Context) ([]string, error)
}

func printStaticList(cmd *cobra.Command, l staticList) error {
	ctx := cmd.Context()
	def, err := l.Default(ctx)
	if err != nil {
		return err
	}
	items, err := l.Items(ctx)
	if err != nil {
		return err
	}
	return printResult(application.StaticList{Default: def, Items: items})
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Read products",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products, walking pages until --limit items are read",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()
		products := application.NewConnector(sc.client, domain.ProductSchema, logger)
		items, err := products.List(cmd.Context(), sc.listOptions(), listLimit)
		if err != nil {
			return err
		}
		if err := products.LastError(); err != nil {
			logger.Warn().Err(err).Int("items", len(items)).Msg("Listing stopped early")
		}
		return printResult(documents(domain.ProductSchema, items))
	},
}

var productsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()
		products := application.NewConnector(sc.client, domain.ProductSchema, logger)
		p, err := products.Get(cmd.Context(), args[0], sc.listOptions())
		if err != nil {
			return err
		}
		return printResult(domain.ProductSchema.Document(p))
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Read orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()
		orders := application.NewConnector(sc.client, domain.OrderSchema, logger)
		items, err := orders.List(cmd.Context(), sc.listOptions(), listLimit)
		if err != nil {
			return err
		}
		if err := orders.LastError(); err != nil {
			logger.Warn().Err(err).Int("items", len(items)).Msg("Listing stopped early")
		}
		return printResult(documents(domain.OrderSchema, items))
	},
}

var ordersGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()
		orders := application.NewConnector(sc.client, domain.OrderSchema, logger)
		o, err := orders.Get(cmd.Context(), args[0], sc.listOptions())
		if err != nil {
			return err
		}
		return printResult(domain.OrderSchema.Document(o))
	},
}

var infoCmd = &cobra.Command{
	Use:       "info PAGE",
	Short:     "Show a legal page, e.g. terms-and-conditions",
	Args:      cobra.ExactArgs(1),
	ValidArgs: domain.InformationPages,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer sc.Close()
		loc := *locale
		if loc == "" {
			loc, err = application.NewLocales(sc.client, sc.cacheOpts, logger).Used(cmd.Context())
			if err != nil {
				return err
			}
		}
		info, err := application.NewInformationPages(sc.client, sc.cacheOpts, logger).Page(cmd.Context(), args[0], loc)
		if err != nil {
			return err
		}
		return printResult(info)
	},
}

func init() {
	for _, c := range []*cobra.Command{productsListCmd, ordersListCmd} {
		f := c.Flags()
		f.IntVarP(&listLimit, "limit", "n", domain.All, "Maximum number of items, -1 for all")
		f.IntVar(&listPerPage, "per-page", 0, "Items per page (server default when 0)")
		f.StringVarP(&listQuery, "query", "q", "", "Full-text search")
		f.StringVar(&listSort, "sort", "", "Attribute to sort by")
		f.StringVar(&listDirection, "direction", "", "asc or desc")
		f.StringVar(&listCategory, "category", "", "Only items in this category")
		f.BoolVar(&listInvisible, "include-invisible", false, "Include invisible items")
	}
	locale = rootCmd.PersistentFlags().StringP("locale", "l", "", "Locale, e.g. de_DE")
	currency = rootCmd.PersistentFlags().String("currency", "", "Currency, e.g. EUR")

	productsCmd.AddCommand(productsListCmd, productsGetCmd)
	ordersCmd.AddCommand(ordersListCmd, ordersGetCmd)
	rootCmd.AddCommand(localesCmd, currenciesCmd, productsCmd, ordersCmd, infoCmd)
}

func (s *shopClient) listOptions() domain.ListOptions {
	opts := domain.ListOptions{
		Locale:           *locale,
		Currency:         *currency,
		ResultsPerPage:   listPerPage,
		Query:            listQuery,
		Sort:             listSort,
		Direction:        listDirection,
		CategoryID:       listCategory,
		IncludeInvisible: listInvisible,
	}
	if opts.ResultsPerPage == 0 {
		opts.ResultsPerPage = s.perPage
	}
	return opts
}

func documents[T any](schema *domain.Schema[T], items []*T) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, schema.Document(item))
	}
	return out
}
