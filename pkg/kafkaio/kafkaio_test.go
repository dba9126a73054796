package kafkaio

import "testing"

func TestOrDefault(t *testing.T) {
	if got := orDefault(0, 3); got != 3 {
		t.Fatalf("orDefault(0, 3) = %d, want 3", got)
	}
	if got := orDefault(5, 3); got != 5 {
		t.Fatalf("orDefault(5, 3) = %d, want 5", got)
	}
}

func TestOrDefaultStr(t *testing.T) {
	if got := orDefaultStr("", "delete"); got != "delete" {
		t.Fatalf("orDefaultStr(\"\", \"delete\") = %q, want %q", got, "delete")
	}
	if got := orDefaultStr("compact", "delete"); got != "compact" {
		t.Fatalf("orDefaultStr(\"compact\", \"delete\") = %q, want %q", got, "compact")
	}
}

func TestTopicSpecForVOp(t *testing.T) {
	specs := []TopicSpec{
		{Name: "config_vop-a", CleanupPolicy: "compact"},
		{Name: "monitoring_vop-a", CleanupPolicy: "delete", RetentionMillis: 86400000},
		{Name: "health_vop-a", CleanupPolicy: "compact"},
	}
	if len(specs) != 3 {
		t.Fatalf("expected 3 topic specs per vOp, got %d", len(specs))
	}
	for _, s := range specs {
		if s.Name == "" {
			t.Fatal("topic spec missing a name")
		}
	}
}
