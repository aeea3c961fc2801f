package builder

import (
	"errors"
	"testing"

	"stock-service/internal/stock/alias"
	"stock-service/internal/stock/model"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	r, err := alias.New(map[string][]string{
		"faber castell": {"فابر", "faber"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(r)
}

func TestBuild(t *testing.T) {
	b := testBuilder(t)

	t.Run("canonicalizes and keeps display", func(t *testing.T) {
		rec, rerr := b.Build(model.RawRow{
			Index: 0,
			Name:  "كتاب  داستان", // арабский ك и двойной пробел
			Brand: "Faber",
			Code:  "۱۰۲۳",
			Qty:   "۵",
			Price: "45,000",
			Unit:  "جلد",
		})
		if rerr != nil {
			t.Fatalf("unexpected row error: %v", rerr)
		}
		if rec.NameCanon != "کتاب داستان" {
			t.Errorf("NameCanon = %q", rec.NameCanon)
		}
		if rec.NameDisplay != "كتاب  داستان" {
			t.Errorf("NameDisplay = %q, want original text", rec.NameDisplay)
		}
		if rec.BrandCanon != "faber castell" {
			t.Errorf("BrandCanon = %q, want alias resolved", rec.BrandCanon)
		}
		if rec.ID != "1023" {
			t.Errorf("ID = %q, want folded code", rec.ID)
		}
		if rec.Qty != 5 || rec.Price != 45000 {
			t.Errorf("Qty/Price = %v/%v", rec.Qty, rec.Price)
		}
	})

	t.Run("missing key when no code and no name", func(t *testing.T) {
		_, rerr := b.Build(model.RawRow{Index: 3, Qty: "1"})
		if rerr == nil || rerr.Kind != model.MissingKey {
			t.Errorf("rerr = %v, want MissingKey", rerr)
		}
	})

	t.Run("invalid numeric reported with field", func(t *testing.T) {
		_, rerr := b.Build(model.RawRow{Index: 7, Name: "چیزی", Qty: "دو جلد"})
		if rerr == nil || rerr.Kind != model.InvalidNumeric || rerr.Field != "quantity" {
			t.Errorf("rerr = %v, want InvalidNumeric quantity", rerr)
		}
	})

	t.Run("empty cells are zero not error", func(t *testing.T) {
		rec, rerr := b.Build(model.RawRow{Index: 1, Name: "چیزی"})
		if rerr != nil {
			t.Fatalf("unexpected row error: %v", rerr)
		}
		if rec.Qty != 0 || rec.Price != 0 {
			t.Errorf("Qty/Price = %v/%v, want zeros", rec.Qty, rec.Price)
		}
	})
}

func exportMaps() []map[string]string {
	return []map[string]string{
		{"نام كتاب": "مداد رنگی", "ناشر": "فابر", "كدسيستم": "100", "تعداد": "۳", "پشت جلد": "50,000", "واحد": "عدد"},
		{"نام كتاب": "خودکار آبی", "ناشر": "", "كدسيستم": "101", "تعداد": "7", "پشت جلد": "12000", "واحد": "عدد"},
		{"نام كتاب": "دفتر", "ناشر": "", "كدسيستم": "102", "تعداد": "چهار", "پشت جلد": "", "واحد": ""},
	}
}

func TestFromMaps(t *testing.T) {
	b := testBuilder(t)
	m := model.DefaultMapping(1)

	t.Run("builds valid rows, accumulates bad ones", func(t *testing.T) {
		records, rowErrs, err := b.FromMaps(exportMaps(), m)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("records = %d, want 2", len(records))
		}
		if len(rowErrs) != 1 {
			t.Fatalf("rowErrs = %d, want exactly 1", len(rowErrs))
		}
		if rowErrs[0].Row != 2 || rowErrs[0].Kind != model.InvalidNumeric {
			t.Errorf("rowErrs[0] = %v", rowErrs[0])
		}
		if records[0].BrandCanon != "faber castell" {
			t.Errorf("BrandCanon = %q", records[0].BrandCanon)
		}
	})

	t.Run("tolerates header variants", func(t *testing.T) {
		maps := []map[string]string{
			// персидский ک и лишние пробелы в заголовках
			{"نام کتاب ": "کتاب", " تعداد ": "2"},
		}
		records, rowErrs, err := b.FromMaps(maps, m)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rowErrs) != 0 || len(records) != 1 {
			t.Fatalf("records/errs = %d/%d", len(records), len(rowErrs))
		}
		if records[0].Qty != 2 {
			t.Errorf("Qty = %v", records[0].Qty)
		}
	})

	t.Run("missing required column is a schema error", func(t *testing.T) {
		maps := []map[string]string{
			{"ستون عجیب": "x", "دیگری": "y"},
		}
		_, _, err := b.FromMaps(maps, m)
		var se *model.SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("err = %v, want SchemaError", err)
		}
	})

	t.Run("repeated header row is skipped", func(t *testing.T) {
		maps := append(exportMaps()[:1],
			map[string]string{"نام كتاب": "نام كتاب", "تعداد": "تعداد", "كدسيستم": "كدسيستم"})
		records, rowErrs, err := b.FromMaps(maps, m)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 || len(rowErrs) != 0 {
			t.Errorf("records/errs = %d/%d, want 1/0", len(records), len(rowErrs))
		}
	})
}
