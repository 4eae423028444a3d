package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medifinder/m/internal/database"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestSeedAndLinkUsers(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	dsn := filepath.Join(dir, "nested", "medifinder.db")

	csvPath := filepath.Join(dir, "stock.csv")
	writeFile(t, csvPath, "pharmacy_id,medicine,price_rwf,quantity\nph-001,Paracetamol,750,12\n")

	run(t, "migrate", "--db", dsn)
	run(t, "seed", "--db", dsn, "--stock-csv", csvPath)

	db, err := database.Connect(dsn)
	require.NoError(t, err)
	var pharmacies int
	require.NoError(t, db.Get(&pharmacies, `SELECT COUNT(*) FROM pharmacies`))
	assert.Equal(t, 7, pharmacies)

	var qty int64
	require.NoError(t, db.Get(&qty, `SELECT s.quantity FROM pharmacy_stocks s JOIN medicines m ON m.id = s.medicine_id
		WHERE s.pharmacy_id = 'ph-001' AND m.name = 'Paracetamol' AND m.strength IS NULL`))
	assert.Equal(t, int64(12), qty)

	_, err = db.Exec(`INSERT INTO users (id, email, name, password, role) VALUES ('u-1', 'k@x.rw', 'Kipharma', 'x', 'pharmacy')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out := run(t, "link-users", "--db", dsn)
	assert.True(t, strings.Contains(out, "linked 1 account(s)"), out)
}

func TestCreateStaff(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dsn := filepath.Join(t.TempDir(), "medifinder.db")
	run(t, "seed", "--db", dsn)

	out := run(t, "create-staff", "--db", dsn, "--name", "Kipharma Desk", "--email", "desk@kipharma.rw",
		"--password", "secret1", "--pharmacy", "ph-006")
	assert.Contains(t, out, "for pharmacy ph-006")

	db, err := database.Connect(dsn)
	require.NoError(t, err)
	defer db.Close()
	var row struct {
		Role       string `db:"role"`
		PharmacyID string `db:"pharmacy_id"`
	}
	require.NoError(t, db.Get(&row, `SELECT role, pharmacy_id FROM users WHERE email = 'desk@kipharma.rw'`))
	assert.Equal(t, "pharmacy", row.Role)
	assert.Equal(t, "ph-006", row.PharmacyID)

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"create-staff", "--db", dsn, "--name", "X", "--email", "x@x.rw", "--password", "secret1", "--pharmacy", "ph-404"})
	assert.Error(t, root.Execute())
}

func TestUnknownCommandFails(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"frobnicate"})
	assert.Error(t, root.Execute())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
