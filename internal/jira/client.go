package jira

import (
	"context"
	"fmt"
	"strings"

	"log-triage-backend/config"
	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/httpclient"

	"github.com/rs/zerolog/log"
)

const unknownIssueKey = "UNKNOWN"

// TicketCreator files bugs in the issue tracker.
type TicketCreator interface {
	CreateTicket(ctx context.Context, req dto.TicketRequest) (string, error)
	BrowseURL(ticketID string) string
}

type Client struct {
	http       *httpclient.Client
	projectKey string
	issueType  string
}

type issueFields struct {
	Project     projectRef   `json:"project"`
	Summary     string       `json:"summary"`
	Description string       `json:"description"`
	IssueType   issueTypeRef `json:"issuetype"`
}

type projectRef struct {
	Key string `json:"key"`
}

type issueTypeRef struct {
	Name string `json:"name"`
}

type createIssueRequest struct {
	Fields issueFields `json:"fields"`
}

type createIssueResponse struct {
	Key string `json:"key"`
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http: httpclient.New(
			strings.TrimRight(cfg.Jira.BaseURL, "/"),
			cfg.Jira.Bearer,
			httpclient.WithTimeout(cfg.Jira.Timeout),
		),
		projectKey: cfg.Jira.ProjectKey,
		issueType:  cfg.Jira.IssueType,
	}
}

// CreateTicket posts a new issue. A success response without a key yields "UNKNOWN".
func (c *Client) CreateTicket(ctx context.Context, req dto.TicketRequest) (string, error) {
	issueType := req.Category
	if issueType == "" {
		issueType = c.issueType
	}
	payload := createIssueRequest{
		Fields: issueFields{
			Project:     projectRef{Key: c.projectKey},
			Summary:     req.Summary,
			Description: req.Description,
			IssueType:   issueTypeRef{Name: issueType},
		},
	}

	var resp createIssueResponse
	if err := c.http.PostJSON(ctx, "/rest/api/3/issue", payload, &resp); err != nil {
		return "", fmt.Errorf("jira create issue: %w", err)
	}
	if resp.Key == "" {
		log.Warn().Str("summary", req.Summary).Msg("Jira response carried no issue key")
		return unknownIssueKey, nil
	}

	log.Info().Str("ticket", resp.Key).Str("summary", req.Summary).Msg("Created Jira issue")
	return resp.Key, nil
}

func (c *Client) BrowseURL(ticketID string) string {
	return fmt.Sprintf("%s/browse/%s", c.http.BaseURL(), ticketID)
}
