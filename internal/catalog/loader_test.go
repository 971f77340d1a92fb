package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

const bookCrossingCSV = `"ISBN";"Book-Title";"Book-Author";"Year-Of-Publication";"Publisher";"Image-URL-S";"Image-URL-M";"Image-URL-L"
"0195153448";"Classical Mythology";"Mark P. O. Morford";"2002";"Oxford University Press";"s";"http://img/m1.jpg";"l"
"0002005018";"Clara Callan";"Richard Bruce Wright";"2001";"HarperFlamingo Canada";"s";"http://img/m2.jpg";"l"
"0789466953";"Hollow "Ghost" Stories";"James Buckley";"DK Publishing Inc";"2000";"s";"m";"l"
"0060973129";"Decision in Normandy";"Carlo D'Este";"1991";"";"s";"http://img/m4.jpg";"l"
`

func TestReadCSV_BookCrossing(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(bookCrossingCSV), ';')
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0].Title != "Classical Mythology" || rows[0].ImageURL != "http://img/m1.jpg" {
		t.Errorf("unexpected first row %+v", rows[0])
	}
	if rows[2].Year != "DK Publishing Inc" {
		t.Errorf("expected shifted row to be read as-is, got year %q", rows[2].Year)
	}
}

func TestReadCSV_LowercaseHeader(t *testing.T) {
	data := "title,author,year\nDune,Frank Herbert,1965\n"
	rows, err := ReadCSV(strings.NewReader(data), 0)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 1 || rows[0].Authors != "Frank Herbert" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("title,year\nDune,1965\n"), 0)
	if err == nil || !strings.Contains(err.Error(), "authors") {
		t.Fatalf("expected missing authors column error, got %v", err)
	}
}

func TestLoad_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.csv")
	if err := os.WriteFile(path, []byte(bookCrossingCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	store, stats, err := Load(Options{Path: path, Delimiter: ';'}, zap.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 books, got %d", store.Len())
	}
	if stats.Dropped[DropBadYear] != 1 {
		t.Errorf("expected 1 bad year drop, got %v", stats.Dropped)
	}
	seed, err := store.FindSeed("normandy")
	if err != nil {
		t.Fatalf("FindSeed: %v", err)
	}
	if seed.Publisher() != "Unknown" {
		t.Errorf("expected Unknown publisher, got %q", seed.Publisher())
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, _, err := Load(Options{Path: "x.csv", Format: "xlsx"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(Options{Path: filepath.Join(t.TempDir(), "nope.csv")}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error")
	}
}

type parquetBook struct {
	Title     string `parquet:"Book-Title"`
	Author    string `parquet:"Book-Author"`
	Year      int64  `parquet:"Year-Of-Publication"`
	Publisher string `parquet:"Publisher,optional"`
}

func TestLoad_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.parquet")
	rows := []parquetBook{
		{Title: "Dune", Author: "Frank Herbert", Year: 1965, Publisher: "Chilton"},
		{Title: "Emma", Author: "Jane Austen", Year: 1815},
		{Title: "Old", Author: "Someone", Year: 1700},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("write parquet: %v", err)
	}

	store, stats, err := Load(Options{Path: path}, zap.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 books, got %d (%+v)", store.Len(), stats)
	}
	emma, err := store.FindSeed("emma")
	if err != nil {
		t.Fatalf("FindSeed: %v", err)
	}
	if emma.Year() != 1815 {
		t.Errorf("expected 1815, got %d", emma.Year())
	}
}

func TestFormatFromExt(t *testing.T) {
	if formatFromExt("a/b.PARQUET") != FormatParquet {
		t.Error("expected parquet")
	}
	if formatFromExt("books.csv") != FormatCSV {
		t.Error("expected csv")
	}
}
