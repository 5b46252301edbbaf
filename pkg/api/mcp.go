package api

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/linkflyer/venued/pkg/kit"
	"github.com/linkflyer/venued/pkg/pipeline"
)

// RegisterMCPTools registers the venued MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, deps Deps) {
	registerResolveVenue(srv, deps)
	registerResolveBatch(srv, deps)
	registerCatalogStats(srv, deps)
}

func registerResolveVenue(srv *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("resolve_venue",
		mcp.WithDescription("Resolve a noisy venue name from an event listing to a canonical venue record, falling back to a place lookup when the catalog has no confident match."),
		mcp.WithString("venue_name", mcp.Description("The venue name as it appears in the listing")),
		mcp.WithString("event_name", mcp.Description("The event title, used as the venue name when venue_name is empty")),
		mcp.WithString("locality", mcp.Description("City or neighborhood hint (e.g. Shibuya)")),
		mcp.WithString("date", mcp.Description("Event date, echoed back in the outcome")),
	)

	kit.RegisterMCPTool(srv, tool, resolveEndpoint(deps.Pipeline),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args := req.GetArguments()
			ev := pipeline.Event{}
			ev.VenueName, _ = args["venue_name"].(string)
			ev.Name, _ = args["event_name"].(string)
			ev.Locality, _ = args["locality"].(string)
			ev.Date, _ = args["date"].(string)
			return &kit.MCPDecodeResult{Request: &resolveReq{Event: ev}}, nil
		})
}

func registerResolveBatch(srv *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("resolve_batch",
		mcp.WithDescription("Resolve multiple venue names (up to 100) against the catalog."),
		mcp.WithString("venues", mcp.Required(), mcp.Description("Comma-separated list of venue names")),
		mcp.WithString("locality", mcp.Description("Locality hint applied to every venue in the batch")),
	)

	kit.RegisterMCPTool(srv, tool, resolveBatchEndpoint(deps.Pipeline),
		func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			args := req.GetArguments()
			venuesStr, _ := args["venues"].(string)
			locality, _ := args["locality"].(string)

			var events []pipeline.Event
			for _, name := range strings.Split(venuesStr, ",") {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				events = append(events, pipeline.Event{VenueName: name, Locality: locality})
			}
			return &kit.MCPDecodeResult{Request: &resolveBatchReq{Events: events}}, nil
		})
}

func registerCatalogStats(srv *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("catalog_stats",
		mcp.WithDescription("Report catalog readiness, venue count and the resolver's scoring configuration."),
	)

	kit.RegisterMCPTool(srv, tool, statsEndpoint(deps.Cache, deps.Resolver),
		func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			return &kit.MCPDecodeResult{Request: nil}, nil
		})
}
