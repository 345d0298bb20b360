// Package main is the erfasst command line client. It talks to the same
// GraphQL backend as the MCP server and prints results as indented JSON,
// which makes it handy for poking at the API without an MCP host.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/erfasst/erfasst-mcp/internal/config"
	"github.com/erfasst/erfasst-mcp/internal/equipment"
	"github.com/erfasst/erfasst-mcp/internal/graphql"
	"github.com/erfasst/erfasst-mcp/internal/projects"
	"github.com/erfasst/erfasst-mcp/internal/staff"
	"github.com/erfasst/erfasst-mcp/internal/timetracking"
	"github.com/jessevdk/go-flags"
)

type globalOptions struct {
	URL      string `long:"url" env:"ERFASST_GRAPHQL_URL" description:"GraphQL endpoint URL"`
	Username string `long:"username" env:"ERFASST_API_USERNAME" default:"api" description:"API username"`
	Token    string `long:"token" env:"ERFASST_API_TOKEN" description:"API secret token"`
	Timeout  int    `long:"timeout" default:"30" description:"Request timeout in seconds"`
}

var opts globalOptions

func newClient() (*graphql.HTTPClient, error) {
	url := opts.URL
	if url == "" {
		url = config.DefaultEndpoint
	}
	return graphql.NewHTTPClient(config.GraphQLConfig{
		URL:      url,
		Username: opts.Username,
		Secret:   opts.Token,
		Timeout:  opts.Timeout,
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ---------------------------------------------------------------------------
// query / ping
// ---------------------------------------------------------------------------

type queryCmd struct {
	Variables string `long:"variables" description:"Variables as a JSON object string"`
	Mutation  bool   `long:"mutation" description:"Execute as a mutation instead of a query"`
	Args      struct {
		Operation string `positional-arg-name:"operation" required:"yes" description:"GraphQL operation text"`
	} `positional-args:"yes"`
}

func (c *queryCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	var variables map[string]any
	if c.Variables != "" {
		if err := json.Unmarshal([]byte(c.Variables), &variables); err != nil {
			return fmt.Errorf("parse variables: %w", err)
		}
	}

	ctx := context.Background()
	var raw json.RawMessage
	if c.Mutation {
		raw, err = client.Mutation(ctx, c.Args.Operation, variables)
	} else {
		raw, err = client.Query(ctx, c.Args.Operation, variables)
	}
	if err != nil {
		return err
	}

	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return printJSON(result)
}

type pingCmd struct{}

func (c *pingCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.TestConnection(context.Background()); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

// ---------------------------------------------------------------------------
// projects
// ---------------------------------------------------------------------------

type projectsListCmd struct {
	Status string `long:"status" description:"Filter by status"`
	Limit  int    `long:"limit" description:"Maximum number of results"`
}

func (c *projectsListCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	mgr := projects.NewGraphQLProjectManager(client)
	list, err := mgr.List(context.Background(), projects.ListOptions{Status: c.Status, Limit: c.Limit})
	if err != nil {
		return err
	}
	return printJSON(list)
}

type projectsGetCmd struct {
	Args struct {
		Ident string `positional-arg-name:"ident" required:"yes"`
	} `positional-args:"yes"`
}

func (c *projectsGetCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	mgr := projects.NewGraphQLProjectManager(client)
	p, err := mgr.Get(context.Background(), c.Args.Ident)
	if err != nil {
		return err
	}
	return printJSON(p)
}

type projectsSearchCmd struct {
	Limit int `long:"limit" description:"Maximum number of results"`
	Args  struct {
		Query string `positional-arg-name:"query" required:"yes"`
	} `positional-args:"yes"`
}

func (c *projectsSearchCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	mgr := projects.NewGraphQLProjectManager(client)
	list, err := mgr.Search(context.Background(), c.Args.Query, projects.ListOptions{Limit: c.Limit})
	if err != nil {
		return err
	}
	return printJSON(list)
}

// ---------------------------------------------------------------------------
// staff
// ---------------------------------------------------------------------------

type staffListCmd struct {
	Role  string `long:"role" description:"Filter by role"`
	Limit int    `long:"limit" description:"Maximum number of results"`
}

func (c *staffListCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	mgr := staff.NewGraphQLStaffManager(client)
	list, err := mgr.List(context.Background(), staff.ListOptions{Role: c.Role, Limit: c.Limit})
	if err != nil {
		return err
	}
	return printJSON(list)
}

type staffGetCmd struct {
	Args struct {
		Ident string `positional-arg-name:"ident" required:"yes"`
	} `positional-args:"yes"`
}

func (c *staffGetCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	mgr := staff.NewGraphQLStaffManager(client)
	p, err := mgr.Get(context.Background(), c.Args.Ident)
	if err != nil {
		return err
	}
	return printJSON(p)
}

type staffSearchCmd struct {
	Limit int `long:"limit" description:"Maximum number of results"`
	Args  struct {
		Query string `positional-arg-name:"query" required:"yes"`
	} `positional-args:"yes"`
}

func (c *staffSearchCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	mgr := staff.NewGraphQLStaffManager(client)
	list, err := mgr.Search(context.Background(), c.Args.Query, c.Limit)
	if err != nil {
		return err
	}
	return printJSON(list)
}

// ---------------------------------------------------------------------------
// equipment
// ---------------------------------------------------------------------------

type equipmentListCmd struct {
	Status string `long:"status" description:"Filter by status"`
	Type   string `long:"type" description:"Filter by equipment type"`
	Limit  int    `long:"limit" description:"Maximum number of results"`
}

func (c *equipmentListCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	mgr := equipment.NewGraphQLEquipmentManager(client)
	list, err := mgr.List(context.Background(), equipment.ListOptions{Status: c.Status, Type: c.Type, Limit: c.Limit})
	if err != nil {
		return err
	}
	return printJSON(list)
}

type equipmentGetCmd struct {
	Args struct {
		Ident string `positional-arg-name:"ident" required:"yes"`
	} `positional-args:"yes"`
}

func (c *equipmentGetCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	mgr := equipment.NewGraphQLEquipmentManager(client)
	eq, err := mgr.Get(context.Background(), c.Args.Ident)
	if err != nil {
		return err
	}
	return printJSON(eq)
}

// ---------------------------------------------------------------------------
// time
// ---------------------------------------------------------------------------

type timeCurrentCmd struct{}

func (c *timeCurrentCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	tracker := timetracking.NewTracker(client)
	list, err := tracker.CurrentTimes(context.Background())
	if err != nil {
		return err
	}
	return printJSON(list)
}

type timeHistoryCmd struct {
	Limit int `long:"limit" description:"Maximum number of records"`
}

func (c *timeHistoryCmd) Execute(args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	tracker := timetracking.NewTracker(client)
	list, err := tracker.History(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	return printJSON(list)
}

// ---------------------------------------------------------------------------
// main
// ---------------------------------------------------------------------------

func main() {
	_ = config.LoadDotEnv()

	parser := flags.NewParser(&opts, flags.Default)

	_, _ = parser.AddCommand("query", "Execute a raw GraphQL operation", "", &queryCmd{})
	_, _ = parser.AddCommand("ping", "Test connectivity to the GraphQL endpoint", "", &pingCmd{})

	projectsCmd, _ := parser.AddCommand("projects", "Project operations", "", &struct{}{})
	if projectsCmd != nil {
		_, _ = projectsCmd.AddCommand("list", "List projects", "", &projectsListCmd{})
		_, _ = projectsCmd.AddCommand("get", "Get a project by ident", "", &projectsGetCmd{})
		_, _ = projectsCmd.AddCommand("search", "Search projects by name", "", &projectsSearchCmd{})
	}

	staffCmd, _ := parser.AddCommand("staff", "Staff operations", "", &struct{}{})
	if staffCmd != nil {
		_, _ = staffCmd.AddCommand("list", "List staff members", "", &staffListCmd{})
		_, _ = staffCmd.AddCommand("get", "Get a staff member by ident", "", &staffGetCmd{})
		_, _ = staffCmd.AddCommand("search", "Search staff by name", "", &staffSearchCmd{})
	}

	equipmentCmd, _ := parser.AddCommand("equipment", "Equipment operations", "", &struct{}{})
	if equipmentCmd != nil {
		_, _ = equipmentCmd.AddCommand("list", "List equipment", "", &equipmentListCmd{})
		_, _ = equipmentCmd.AddCommand("get", "Get equipment by ident", "", &equipmentGetCmd{})
	}

	timeCmd, _ := parser.AddCommand("time", "Time tracking operations", "", &struct{}{})
	if timeCmd != nil {
		_, _ = timeCmd.AddCommand("current", "List current time records", "", &timeCurrentCmd{})
		_, _ = timeCmd.AddCommand("history", "List time tracking history", "", &timeHistoryCmd{})
	}

	if _, err := parser.Parse(); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
