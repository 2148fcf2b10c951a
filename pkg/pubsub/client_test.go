package pubsub

import (
	"testing"

	"github.com/ooprato/ooprato-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "ooprato-prod"}
	cases := map[string]string{
		"orders":                           "projects/ooprato-prod/topics/orders",
		" refunds ":                        "projects/ooprato-prod/topics/refunds",
		"projects/other/topics/ext-orders": "projects/other/topics/ext-orders",
		"":                                 "",
	}
	for in, want := range cases {
		if got := c.topicResourceName(in); got != want {
			t.Fatalf("topicResourceName(%q) = %q want %q", in, got, want)
		}
	}

	if got := (&Client{}).topicResourceName("orders"); got != "" {
		t.Fatalf("expected empty name without project got %q", got)
	}
}

func TestTopicNamesDedupes(t *testing.T) {
	names := topicNames(config.PubSubConfig{OrdersTopic: "events", RefundsTopic: "events"})
	if len(names) != 1 || names[0] != "events" {
		t.Fatalf("unexpected names %v", names)
	}
	if got := topicNames(config.PubSubConfig{}); len(got) != 0 {
		t.Fatalf("expected no names got %v", got)
	}
}
