package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"opslens/src/analytics"
	"opslens/src/classify"
	"opslens/src/collector"
	"opslens/src/config"
	"opslens/src/contracts"
	"opslens/src/logger"
	"opslens/src/pipeline"
	"opslens/src/store"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Server is the MCP server for opslens.
type Server struct {
	mcpServer *server.MCPServer
	svc       *pipeline.Service
	logs      store.Store
	digests   DigestStore
	cfg       *config.Config
	log       logger.Logger
	now       func() time.Time
}

// NewServer creates an MCP server over the service's store.
func NewServer(svc *pipeline.Service, cfg *config.Config, log logger.Logger) *Server {
	s := server.NewMCPServer(
		"opslens",
		Version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		svc:       svc,
		logs:      svc.Store(),
		digests:   NewInMemoryStore(DefaultDigestCapacity),
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
	srv.registerTools()

	return srv
}

func sourceNames() []string {
	names := make([]string, 0, len(contracts.Sources()))
	for _, s := range contracts.Sources() {
		names = append(names, string(s))
	}
	return names
}

func categoryNames() []string {
	names := make([]string, 0, len(contracts.Categories()))
	for _, c := range contracts.Categories() {
		names = append(names, string(c))
	}
	return names
}

func severityNames() []string {
	names := make([]string, 0, len(contracts.Severities()))
	for _, sv := range contracts.Severities() {
		names = append(names, string(sv))
	}
	return names
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	collectTool := mcp.NewTool("collect_logs",
		mcp.WithDescription("Collect logs from a source, classify them and store them. Returns a digest: error patterns fully expanded with samples and suggested fixes, other patterns summarized. Use get_pattern_details to drill into a pattern."),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Log source (orchestrator, runtime, ci, cloud-log)"),
		),
		mcp.WithObject("config",
			mcp.Description("Source configuration, e.g. {\"namespace\":\"default\"} or {\"region\":\"us-east-1\"}"),
		),
		mcp.WithNumber("error_limit",
			mcp.Description("Max error patterns returned (default: 15)"),
		),
		mcp.WithNumber("other_limit",
			mcp.Description("Max non-error pattern summaries returned (default: 5)"),
		),
	)

	queryTool := mcp.NewTool("query_logs",
		mcp.WithDescription("Query stored classified logs, newest first. Messages are compacted unless raw is true."),
		mcp.WithString("source", mcp.Enum(sourceNames()...), mcp.Description("Filter by source")),
		mcp.WithString("category", mcp.Enum(categoryNames()...), mcp.Description("Filter by category")),
		mcp.WithString("severity", mcp.Enum(severityNames()...), mcp.Description("Filter by severity")),
		mcp.WithNumber("limit", mcp.Description("Max logs returned (default: 50)")),
		mcp.WithBoolean("raw", mcp.Description("Return messages unmodified")),
	)

	digestTool := mcp.NewTool("digest_logs",
		mcp.WithDescription("Group stored logs into patterns by category and error type without collecting anything new."),
		mcp.WithString("source", mcp.Enum(sourceNames()...), mcp.Description("Filter by source")),
		mcp.WithString("severity", mcp.Enum(severityNames()...), mcp.Description("Filter by severity")),
		mcp.WithNumber("error_limit", mcp.Description("Max error patterns returned (default: 15)")),
		mcp.WithNumber("other_limit", mcp.Description("Max non-error pattern summaries returned (default: 5)")),
	)

	detailsTool := mcp.NewTool("get_pattern_details",
		mcp.WithDescription("Get every sample and the stored logs for one pattern from an earlier collect_logs or digest_logs response."),
		mcp.WithString("request_id",
			mcp.Required(),
			mcp.Description("Request ID from the digest response"),
		),
		mcp.WithString("pattern_id",
			mcp.Required(),
			mcp.Description("Pattern ID from the digest response"),
		),
	)

	logTool := mcp.NewTool("get_log",
		mcp.WithDescription("Get one stored log by ID, including its raw data."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Log ID")),
	)

	analyticsTool := mcp.NewTool("get_analytics",
		mcp.WithDescription("Summarize the most recent stored logs: counts by category and severity, hourly error trend, top error types and recent errors."),
	)

	rulesTool := mcp.NewTool("list_rules",
		mcp.WithDescription("List the classification rules in evaluation order."),
	)

	s.mcpServer.AddTool(collectTool, s.handleCollectLogs)
	s.mcpServer.AddTool(queryTool, s.handleQueryLogs)
	s.mcpServer.AddTool(digestTool, s.handleDigestLogs)
	s.mcpServer.AddTool(detailsTool, s.handleGetPatternDetails)
	s.mcpServer.AddTool(logTool, s.handleGetLog)
	s.mcpServer.AddTool(analyticsTool, s.handleGetAnalytics)
	s.mcpServer.AddTool(rulesTool, s.handleListRules)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleCollectLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := request.GetString("source", "")
	if source == "" {
		return mcp.NewToolResultError("source parameter is required"), nil
	}

	var cfg collector.Config
	if raw, ok := request.GetArguments()["config"].(map[string]any); ok {
		cfg = collector.Config(raw)
	}

	res, err := s.svc.Collect(ctx, source, cfg)
	if err != nil {
		if userErr, ok := collector.AsUserError(err); ok {
			return mcp.NewToolResultError(fmt.Sprintf("%s. %s", userErr.Message, userErr.Hint)), nil
		}
		s.log.Error("[MCP] collect_logs %s failed: %v", source, err)
		return mcp.NewToolResultError(fmt.Sprintf("collection failed: %v", err)), nil
	}

	return s.digestResult(request, BuildDigest(res.Source, res.Logs))
}

func (s *Server) handleDigestLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, errResult := s.queryOptions(request)
	if errResult != nil {
		return errResult, nil
	}
	opts.Category = ""
	opts.Limit = s.cfg.Store.AnalyticsWindow

	logs, _ := s.logs.Query(opts)
	return s.digestResult(request, BuildDigest(opts.Source, logs))
}

// digestResult caches the digest for drill-down and returns its manifest.
func (s *Server) digestResult(request mcp.CallToolRequest, d Digest) (*mcp.CallToolResult, error) {
	requestID := s.generateRequestID()
	s.digests.Store(requestID, d)

	manifest := ToManifest(requestID, d,
		request.GetInt("error_limit", DefaultErrorLimit),
		request.GetInt("other_limit", DefaultOtherLimit),
	)
	return jsonResult(manifest)
}

func (s *Server) handleGetPatternDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID := request.GetString("request_id", "")
	if requestID == "" {
		return mcp.NewToolResultError("request_id parameter is required"), nil
	}

	patternID := request.GetString("pattern_id", "")
	if patternID == "" {
		return mcp.NewToolResultError("pattern_id parameter is required"), nil
	}

	pattern, found := s.digests.Get(requestID, patternID)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("pattern not found: request_id=%s, pattern_id=%s", requestID, patternID)), nil
	}

	// Records may have been evicted from the log store since the digest.
	logs := make([]contracts.ClassifiedLog, 0, len(pattern.LogIDs))
	for _, id := range pattern.LogIDs {
		if log, err := s.logs.Get(id); err == nil {
			logs = append(logs, log)
		}
	}

	return jsonResult(struct {
		Pattern
		Logs []contracts.ClassifiedLog `json:"logs"`
	}{pattern, logs})
}

func (s *Server) handleQueryLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, errResult := s.queryOptions(request)
	if errResult != nil {
		return errResult, nil
	}

	logs, total := s.logs.Query(opts)
	if !request.GetBool("raw", false) {
		for i := range logs {
			logs[i].Message = CompressLine(logs[i].Message)
			logs[i].RawData = ""
		}
	}

	return jsonResult(struct {
		Logs  []contracts.ClassifiedLog `json:"logs"`
		Total int                       `json:"total"`
	}{logs, total})
}

// defaultToolLimit keeps query_logs responses small enough for a context window.
const defaultToolLimit = 50

func (s *Server) queryOptions(request mcp.CallToolRequest) (store.QueryOptions, *mcp.CallToolResult) {
	opts := store.QueryOptions{
		Category: contracts.Category(request.GetString("category", "")),
		Severity: contracts.Severity(request.GetString("severity", "")),
		Limit:    request.GetInt("limit", defaultToolLimit),
	}
	if opts.Limit <= 0 {
		return opts, mcp.NewToolResultError("limit must be a positive integer")
	}
	if v := request.GetString("source", ""); v != "" {
		src, err := contracts.ParseSource(v)
		if err != nil {
			return opts, mcp.NewToolResultError(fmt.Sprintf("Invalid log source: %s", v))
		}
		opts.Source = src
	}
	return opts, nil
}

func (s *Server) handleGetLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	log, err := s.logs.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(log)
}

func (s *Server) handleGetAnalytics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	window := s.cfg.Store.AnalyticsWindow
	if window <= 0 {
		window = store.DefaultQueryLimit
	}
	return jsonResult(analytics.Summarize(s.logs.Recent(window), s.now()))
}

func (s *Server) handleListRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type rule struct {
		Name         string             `json:"name"`
		Category     contracts.Category `json:"category"`
		Severity     contracts.Severity `json:"severity"`
		SuggestedFix string             `json:"suggested_fix"`
	}

	rules := classify.Rules()
	out := make([]rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, rule{Name: r.Name, Category: r.Category, Severity: r.Severity, SuggestedFix: r.SuggestedFix})
	}
	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// generateRequestID creates a unique request identifier.
func (s *Server) generateRequestID() string {
	timestamp := s.now().UTC().Format("20060102T150405")
	randomBytes := make([]byte, 4)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("req-%s-%s", timestamp, hex.EncodeToString(randomBytes))
}
