package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the schema and the repositories.
const (
	tableSignups       = "signups"
	tableLLMRequests   = "llm_request_events"
	tableNotifications = "notification_events"
)

var (
	signupColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "name", Type: field.TypeString, Size: 100},
		{Name: "email", Type: field.TypeString, Size: 255, Unique: true},
		{Name: "role", Type: field.TypeString, Size: 32},
		{Name: "interest", Type: field.TypeString, Size: 32, Default: ""},
		{Name: "plans", Type: field.TypeString, Size: 512, Default: "[]"},
		{Name: "message", Type: field.TypeString, Size: 2000, Default: ""},
		{Name: "created_at", Type: field.TypeInt64},
	}
	signupsTable = &schema.Table{
		Name:       tableSignups,
		Columns:    signupColumns,
		PrimaryKey: []*schema.Column{signupColumns[0]},
		Indexes: []*schema.Index{
			{Name: "signup_role", Columns: []*schema.Column{signupColumns[3]}},
			{Name: "signup_created_at", Columns: []*schema.Column{signupColumns[7]}},
		},
	}

	llmRequestColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmRequestsTable = &schema.Table{
		Name:       tableLLMRequests,
		Columns:    llmRequestColumns,
		PrimaryKey: []*schema.Column{llmRequestColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmRequestColumns[5]}},
		},
	}

	notificationColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "signup_id", Type: field.TypeString, Size: 36},
		{Name: "channel", Type: field.TypeString},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
	}
	notificationsTable = &schema.Table{
		Name:       tableNotifications,
		Columns:    notificationColumns,
		PrimaryKey: []*schema.Column{notificationColumns[0]},
		Indexes: []*schema.Index{
			{Name: "notificationevent_signup_id", Columns: []*schema.Column{notificationColumns[3]}},
		},
	}

	// tables is every table the store migrates on Open.
	tables = []*schema.Table{signupsTable, llmRequestsTable, notificationsTable}
)
