package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	notificationapp "github.com/storefront/backend/internal/application/notification"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	shippingapp "github.com/storefront/backend/internal/application/shipping"
	staffapp "github.com/storefront/backend/internal/application/staff"
)

// fakeOps records what the commands asked for
type fakeOps struct {
	sweep    *paymentapp.SweepResult
	sweepErr error

	scanWindow time.Duration
	scan       *paymentapp.ScanResult

	syncLimit     int
	dispatchLimit int

	expireTTL   time.Duration
	expireLimit int
	expired     int

	staffReq staffapp.CreateStaffRequest
	staffErr error

	importBody   string
	importDryRun bool
	imported     *catalogapp.ImportResult

	loads    int
	released bool
}

func (f *fakeOps) SweepOrphans(ctx context.Context) (*paymentapp.SweepResult, error) {
	return f.sweep, f.sweepErr
}

func (f *fakeOps) ScanPayments(ctx context.Context, window time.Duration) (*paymentapp.ScanResult, error) {
	f.scanWindow = window
	return f.scan, nil
}

func (f *fakeOps) SyncShipments(ctx context.Context, limit int) (*shippingapp.SyncResult, error) {
	f.syncLimit = limit
	return &shippingapp.SyncResult{Checked: 4, Updated: 2}, nil
}

func (f *fakeOps) DispatchDue(ctx context.Context, limit int) (*notificationapp.DispatchResult, error) {
	f.dispatchLimit = limit
	return &notificationapp.DispatchResult{Checked: 2, Sent: 2}, nil
}

func (f *fakeOps) ExpirePending(ctx context.Context, ttl time.Duration, limit int) (int, error) {
	f.expireTTL = ttl
	f.expireLimit = limit
	return f.expired, nil
}

func (f *fakeOps) Create(ctx context.Context, req staffapp.CreateStaffRequest) (*staffapp.StaffResponse, error) {
	f.staffReq = req
	if f.staffErr != nil {
		return nil, f.staffErr
	}
	return &staffapp.StaffResponse{
		ID:    uuid.MustParse("7f1c2a9e-0000-4000-8000-000000000001"),
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	}, nil
}

func (f *fakeOps) Import(ctx context.Context, r io.Reader, dryRun bool) (*catalogapp.ImportResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.importBody = string(body)
	f.importDryRun = dryRun
	res := *f.imported
	res.DryRun = dryRun
	return &res, nil
}

func (f *fakeOps) loader() Loader {
	return func(ctx context.Context) (*Services, func(context.Context) error, error) {
		f.loads++
		svc := &Services{
			Reconciliation:  f,
			Shipments:       f,
			Emails:          f,
			Orders:          f,
			Staff:           f,
			Catalog:         f,
			PendingOrderTTL: 30 * time.Minute,
		}
		release := func(context.Context) error {
			f.released = true
			return nil
		}
		return svc, release, nil
	}
}

func execute(t *testing.T, load Loader, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(load)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, path := range [][]string{
		{"reconcile", "sweep"},
		{"reconcile", "scan"},
		{"shipments", "sync"},
		{"emails", "dispatch"},
		{"orders", "expire"},
		{"staff", "create"},
		{"catalog", "import"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestReconcileSweep_PartialFailure(t *testing.T) {
	f := &fakeOps{
		sweep:    &paymentapp.SweepResult{Checked: 3, Matched: 1, Refunded: 1, Failed: 1},
		sweepErr: errors.New("refund pi_3: card_declined"),
	}

	out, err := execute(t, f.loader(), "", "reconcile", "sweep")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, f.released)
	golden(t).Assert(t, "reconcile_sweep", []byte(out))
}

func TestReconcileScan_JSON(t *testing.T) {
	f := &fakeOps{scan: &paymentapp.ScanResult{Checked: 5, Paid: 1, AlreadyPaid: 3, Orphaned: 1}}

	out, err := execute(t, f.loader(), "", "reconcile", "scan", "--window", "48h", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, f.scanWindow)
	assert.JSONEq(t, `{
		"status": "ok",
		"data": {"checked": 5, "paid": 1, "already_paid": 3, "orphaned": 1}
	}`, out)
}

func TestReconcileScan_NegativeWindow(t *testing.T) {
	f := &fakeOps{}
	_, err := execute(t, f.loader(), "", "reconcile", "scan", "--window", "-1h")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Zero(t, f.loads)
}

func TestLimits(t *testing.T) {
	f := &fakeOps{}
	_, err := execute(t, f.loader(), "", "shipments", "sync", "--limit", "25")
	require.NoError(t, err)
	assert.Equal(t, 25, f.syncLimit)

	out, err := execute(t, f.loader(), "", "emails", "dispatch")
	require.NoError(t, err)
	assert.Zero(t, f.dispatchLimit)
	assert.Contains(t, out, "sent: 2")

	_, err = execute(t, f.loader(), "", "emails", "dispatch", "--limit", "-1")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestOrdersExpire_UsesConfiguredTTL(t *testing.T) {
	f := &fakeOps{expired: 2}

	out, err := execute(t, f.loader(), "", "orders", "expire")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, f.expireTTL)
	assert.Equal(t, "Pending orders older than 30m0s\n  expired: 2\n", out)

	_, err = execute(t, f.loader(), "", "orders", "expire", "--ttl", "2h", "--limit", "10")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, f.expireTTL)
	assert.Equal(t, 10, f.expireLimit)
}

func TestStaffCreate_PasswordFromStdin(t *testing.T) {
	f := &fakeOps{}

	out, err := execute(t, f.loader(), "correct-horse-battery\n",
		"staff", "create", "--email", "ops@shop.test", "--name", "Ops", "--role", "staff")
	require.NoError(t, err)
	assert.Equal(t, staffapp.CreateStaffRequest{
		Email:    "ops@shop.test",
		Name:     "Ops",
		Password: "correct-horse-battery",
		Role:     "STAFF",
	}, f.staffReq)
	assert.Contains(t, out, "id: 7f1c2a9e-0000-4000-8000-000000000001")
}

func TestStaffCreate_Errors(t *testing.T) {
	f := &fakeOps{}
	_, err := execute(t, f.loader(), "", "staff", "create", "--email", "ops@shop.test", "--name", "Ops")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Zero(t, f.loads)

	f.staffErr = errors.New("email already exists")
	_, err = execute(t, f.loader(), "", "staff", "create", "--email", "ops@shop.test", "--name", "Ops", "--password", "hunter2hunter2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorContains(t, err, "email already exists")
}

func TestCatalogImport_DryRunFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: []\n"), 0o600))
	f := &fakeOps{imported: &catalogapp.ImportResult{
		CategoriesCreated: 1,
		ProductsCreated:   2,
		ProductsUpdated:   1,
		VariantsCreated:   3,
		StockAdjusted:     3,
	}}

	out, err := execute(t, f.loader(), "", "catalog", "import", "--file", path, "--dry-run")
	require.NoError(t, err)
	assert.True(t, f.importDryRun)
	assert.Equal(t, "categories: []\n", f.importBody)
	golden(t).Assert(t, "catalog_import_dry_run", []byte(out))
}

func TestCatalogImport_Stdin(t *testing.T) {
	f := &fakeOps{imported: &catalogapp.ImportResult{}}
	_, err := execute(t, f.loader(), "products: []\n", "catalog", "import", "-f", "-")
	require.NoError(t, err)
	assert.False(t, f.importDryRun)
	assert.Equal(t, "products: []\n", f.importBody)
}

func TestRootOptions_Validation(t *testing.T) {
	f := &fakeOps{}
	_, err := execute(t, f.loader(), "", "--format", "xml", "shipments", "sync")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Zero(t, f.loads)
}

func TestLoaderError(t *testing.T) {
	failing := func(ctx context.Context) (*Services, func(context.Context) error, error) {
		return nil, nil, errors.New("dial tcp 127.0.0.1:5432: connection refused")
	}
	_, err := execute(t, failing, "", "reconcile", "sweep")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorContains(t, err, "connection refused")
}
