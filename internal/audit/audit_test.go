package audit_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Veysel440/ipgate/internal/audit"
	"github.com/Veysel440/ipgate/internal/gate"
	"github.com/Veysel440/ipgate/internal/logging"
)

func TestStore_Insert(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := audit.Store{DB: db}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO access_log")).
		WithArgs("access_denied", "redirect", "10.0.0.5", "cf-connecting-ip", "GET", "/contracts",
			"rid-1", "10.0.0.5", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Insert(context.Background(), gate.Event{
		Name:           gate.EventDenied,
		Outcome:        gate.Redirect,
		IP:             gate.ClientIP{Addr: "10.0.0.5", Source: gate.SourceCFConnectingIP},
		Method:         "GET",
		Path:           "/contracts",
		RequestID:      "rid-1",
		CFConnectingIP: "10.0.0.5",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStore_InsertUnresolved(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := audit.Store{DB: db}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO access_log")).
		WithArgs("access_denied", "block", gate.Unknown, "none", "GET", "/", "", "", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.Insert(context.Background(), gate.Event{Name: gate.EventDenied, Outcome: gate.Block, Method: "GET", Path: "/"}); err != nil {
		t.Fatal(err)
	}
}

func TestStore_InsertTruncatesToColumns(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := audit.Store{DB: db}

	long := strings.Repeat("9", 300)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO access_log")).
		WithArgs("access_denied", "block", long[:64], "cf-connecting-ip", "GET", "/", "", long[:255], "", long, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Insert(context.Background(), gate.Event{
		Name:           gate.EventDenied,
		Outcome:        gate.Block,
		IP:             gate.ClientIP{Addr: long, Source: gate.SourceCFConnectingIP},
		Method:         "GET",
		Path:           "/",
		CFConnectingIP: long,
		ForwardedFor:   long,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestClampLimit(t *testing.T) {
	for in, want := range map[int]int{-1: 100, 0: 100, 1: 1, 250: 250, 1000: 1000, 5000: 1000} {
		if got := audit.ClampLimit(in); got != want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestStore_ListFilters(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := audit.Store{DB: db}

	now := time.Now()
	cols := []string{"id", "event", "outcome", "ip", "source", "method", "path", "rid", "cf_connecting_ip", "x_real_ip", "x_forwarded_for", "created_at"}
	rows := sqlmock.NewRows(cols).
		AddRow(int64(2), "access_denied", "block", "10.0.0.5", "x-real-ip", "GET", "/a", "r2", "", "10.0.0.5", "", now).
		AddRow(int64(1), "access_denied", "block", "10.0.0.5", "x-real-ip", "GET", "/b", "r1", "", "10.0.0.5", "", now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM access_log")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "block", "10.0.0.5", 1000).
		WillReturnRows(rows)

	out, err := s.List(context.Background(), audit.Filter{
		From: now.Add(-time.Hour), To: now, Outcome: "block", IP: "10.0.0.5", Limit: 5000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != 2 || out[1].Path != "/b" {
		t.Fatalf("rows %+v", out)
	}
}

type fakeInserter struct {
	mu   sync.Mutex
	got  []gate.Event
	err  error
	wait chan struct{}
}

func (f *fakeInserter) Insert(_ context.Context, e gate.Event) error {
	if f.wait != nil {
		<-f.wait
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, e)
	return f.err
}

func (f *fakeInserter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func TestSink_FlushesOnClose(t *testing.T) {
	ins := &fakeInserter{}
	s := audit.NewSink(ins, audit.SinkOptions{Buffer: 8, Log: logging.Discard()})
	s.Start()
	for i := 0; i < 5; i++ {
		s.Record(context.Background(), gate.Event{Name: gate.EventAllowed})
	}
	s.Close()
	if n := ins.count(); n != 5 {
		t.Fatalf("want 5 inserts, got %d", n)
	}
}

func TestSink_DropsWhenFull(t *testing.T) {
	ins := &fakeInserter{wait: make(chan struct{})}
	drops := 0
	var mu sync.Mutex
	s := audit.NewSink(ins, audit.SinkOptions{
		Buffer: 1,
		Log:    logging.Discard(),
		OnDrop: func() { mu.Lock(); drops++; mu.Unlock() },
	})
	// worker not started: the queue holds one event, the rest drop
	for i := 0; i < 4; i++ {
		s.Record(context.Background(), gate.Event{Name: gate.EventDenied})
	}
	mu.Lock()
	got := drops
	mu.Unlock()
	if got != 3 {
		t.Fatalf("want 3 drops, got %d", got)
	}
	close(ins.wait)
	s.Close()
}

func TestSink_InsertErrorReported(t *testing.T) {
	ins := &fakeInserter{err: errors.New("db down")}
	errs := 0
	var mu sync.Mutex
	s := audit.NewSink(ins, audit.SinkOptions{
		Log:     logging.Discard(),
		OnError: func() { mu.Lock(); errs++; mu.Unlock() },
	})
	s.Start()
	s.Record(context.Background(), gate.Event{Name: gate.EventDenied})
	s.Close()
	mu.Lock()
	defer mu.Unlock()
	if errs != 1 {
		t.Fatalf("want 1 error callback, got %d", errs)
	}
}

func TestSink_RecordAfterCloseDrops(t *testing.T) {
	ins := &fakeInserter{}
	drops := 0
	s := audit.NewSink(ins, audit.SinkOptions{Log: logging.Discard(), OnDrop: func() { drops++ }})
	s.Start()
	s.Close()
	s.Record(context.Background(), gate.Event{})
	if drops != 1 || ins.count() != 0 {
		t.Fatalf("drops=%d inserts=%d", drops, ins.count())
	}
}

func TestSink_KeepsEventsRecordedDuringShutdown(t *testing.T) {
	ins := &fakeInserter{}
	drops := 0
	s := audit.NewSink(ins, audit.SinkOptions{Log: logging.Discard(), OnDrop: func() { drops++ }})
	s.Start()

	// the request context is already gone while the server drains
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Record(ctx, gate.Event{Name: gate.EventDenied})
	s.Close()

	if ins.count() != 1 || drops != 0 {
		t.Fatalf("inserts=%d drops=%d", ins.count(), drops)
	}
}

func TestSink_CloseWithoutStartFlushes(t *testing.T) {
	ins := &fakeInserter{}
	s := audit.NewSink(ins, audit.SinkOptions{Log: logging.Discard()})
	s.Record(context.Background(), gate.Event{Name: gate.EventAllowed})
	s.Close()
	s.Close()
	if n := ins.count(); n != 1 {
		t.Fatalf("want 1 insert, got %d", n)
	}
}
