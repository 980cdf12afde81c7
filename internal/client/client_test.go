package client

import (
	"context"
	"net"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/ppiankov/actiongate/internal/approval"
	"github.com/ppiankov/actiongate/internal/classify"
	"github.com/ppiankov/actiongate/internal/guard"
	"github.com/ppiankov/actiongate/internal/model"
	"github.com/ppiankov/actiongate/internal/server"
)

// startTestServer creates a server for g and returns a connected client.
func startTestServer(t *testing.T, g *guard.Guard, cfg server.Config, opts ...server.Option) *Client {
	t.Helper()

	srv := server.New(g, cfg, opts...)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.ServeOn(lis)

	c, err := New(lis.Addr().String())
	if err != nil {
		srv.GracefulStop()
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
		srv.GracefulStop()
	})
	return c
}

func TestClientCheckAllowed(t *testing.T) {
	c := startTestServer(t, guard.New(), server.Config{})

	allowed, ra, err := c.CheckAction(context.Background(), model.KindScroll, "", nil)
	if err != nil {
		t.Fatalf("CheckAction: %v", err)
	}
	if !allowed || ra.Level != model.RiskLow {
		t.Errorf("expected allowed low risk, got %v %+v", allowed, ra)
	}
}

func TestClientCheckBlocked(t *testing.T) {
	c := startTestServer(t, guard.New(guard.WithLevel(model.EnforceHigh)), server.Config{})

	resp, err := c.CheckTool(context.Background(), classify.ToolClickElement,
		map[string]any{classify.ArgDescription: "Оформить заказ"},
		model.Context{model.KeyIsPaymentPage: true})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Allowed || resp.Kind != model.KindPayment {
		t.Errorf("expected blocked payment, got %+v", resp)
	}
}

func TestClientFailClosed(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := lis.Addr().String()
	lis.Close() // nothing serves this port

	c, err := New(addr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	allowed, ra, err := c.CheckAction(ctx, model.KindScroll, "", nil)
	if err != nil {
		t.Fatalf("fail-closed check must not error, got %v", err)
	}
	if allowed {
		t.Error("unreachable server must block")
	}
	if ra.Level != model.RiskCritical || !slices.Contains(ra.TriggeredRules, FailClosedRule) {
		t.Errorf("unexpected fail-closed assessment: %+v", ra)
	}
}

func TestClientRejectedKind(t *testing.T) {
	c := startTestServer(t, guard.New(), server.Config{})

	if _, _, err := c.CheckAction(context.Background(), model.ActionKind("hover"), "x", nil); err == nil {
		t.Error("expected error for an unknown kind")
	}
}

func TestClientClassifyStatsSave(t *testing.T) {
	report := filepath.Join(t.TempDir(), "report.json")
	c := startTestServer(t, guard.New(), server.Config{ReportPath: report})

	cl, err := c.Classify(classify.ToolTypeText, map[string]any{classify.ArgText: "alice@example.com"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cl.Kind != model.KindTypeEmail {
		t.Errorf("expected type_email, got %s", cl.Kind)
	}

	c.CheckAction(context.Background(), model.KindAnalyze, "", nil)
	st, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.AuditStats.TotalEvents != 1 {
		t.Errorf("expected one event, got %d", st.AuditStats.TotalEvents)
	}

	path, err := c.SaveLogs("")
	if err != nil || path != report {
		t.Errorf("expected %s, got %s (%v)", report, path, err)
	}
}

func TestClientResolvesPending(t *testing.T) {
	q := approval.NewQueue(time.Minute)
	c := startTestServer(t, guard.New(guard.WithRequester(q)), server.Config{}, server.WithQueue(q))

	done := make(chan bool, 1)
	go func() {
		allowed, _, _ := c.CheckAction(context.Background(), model.KindTypeCardNumber, "4111 1111 1111 1234", nil)
		done <- allowed
	}()

	var pending []approval.Pending
	deadline := time.Now().Add(5 * time.Second)
	for len(pending) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("confirmation never queued")
		}
		time.Sleep(10 * time.Millisecond)
		var err error
		if pending, err = c.Pending(); err != nil {
			t.Fatal(err)
		}
	}

	d, err := c.Resolve(pending[0].ID, "n")
	if err != nil || d != model.DecisionBlocked {
		t.Fatalf("expected blocked, got %s (%v)", d, err)
	}
	select {
	case allowed := <-done:
		if allowed {
			t.Error("denied confirmation must block")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("check never returned")
	}
}
