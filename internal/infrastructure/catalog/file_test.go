package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"warrantfeed/internal/domain"
	"warrantfeed/internal/infrastructure/catalog"
)

func TestFileCatalogCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "warrants.csv")
	require.NoError(t, os.WriteFile(path, []byte("Code,Name\n0001,Alpha\n0002, Beta\n"), 0o644))

	got, err := catalog.NewFile(path, "", ".KLSE", 0).Load(t.Context())
	require.NoError(t, err)
	require.Equal(t, []domain.Instrument{
		{Symbol: "0001.KLSE", Name: "Alpha"},
		{Symbol: "0002.KLSE", Name: "Beta"},
	}, got)
}

func TestFileCatalogXLSX(t *testing.T) {
	t.Parallel()

	// Arrange: write a workbook with a non-default sheet name
	path := filepath.Join(t.TempDir(), "myr_data.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Warrants"))
	require.NoError(t, f.SetSheetRow("Warrants", "A1", &[]any{"Code", "Name"}))
	require.NoError(t, f.SetSheetRow("Warrants", "A2", &[]any{"5238WA", "AAX-WA"}))
	require.NoError(t, f.SetSheetRow("Warrants", "A3", &[]any{"0138WB", "MYEG-WB"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	// Act
	got, err := catalog.NewFile(path, "Warrants", ".KLSE", 0).Load(t.Context())

	// Assert
	require.NoError(t, err)
	require.Equal(t, []domain.Instrument{
		{Symbol: "5238WA.KLSE", Name: "AAX-WA"},
		{Symbol: "0138WB.KLSE", Name: "MYEG-WB"},
	}, got)

	// Active sheet is used when none is configured.
	got, err = catalog.NewFile(path, "", ".KLSE", 1).Load(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestFileCatalogUnavailable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, path := range []string{
		filepath.Join(dir, "missing.xlsx"),
		filepath.Join(dir, "missing.csv"),
		filepath.Join(dir, "catalog.json"),
	} {
		_, err := catalog.NewFile(path, "", ".KLSE", 0).Load(t.Context())
		require.ErrorIs(t, err, domain.ErrCatalogUnavailable, path)
	}
}
