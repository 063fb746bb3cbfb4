package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fuabioo/xlcodec/internal/codec"
	"github.com/fuabioo/xlcodec/internal/model"
	"github.com/fuabioo/xlcodec/internal/styles"
)

func main() {
	wb := model.NewWorkbook()
	wb.Properties = model.Properties{
		Title:   "Staff and products",
		Creator: "xlcodec",
		Created: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}

	staff, err := wb.AddSheet("Staff")
	if err != nil {
		log.Fatal(err)
	}

	header := &styles.Descriptor{
		Font:      &styles.Font{Bold: true},
		Fill:      &styles.Fill{Pattern: "solid", FgColor: "FFDDEBF7"},
		Alignment: &styles.Alignment{Horizontal: "center"},
	}

	// Add headers
	headers := []string{"Name", "Age", "City", "Department", "Hired"}
	for i, h := range headers {
		staff.SetValue(0, i, model.Text(h)).Style = header
	}

	// Add data rows
	data := [][]any{
		{"Alice", 30, "New York", "Engineering", "2019-03-01"},
		{"Bob", 25, "San Francisco", "Marketing", "2022-07-18"},
		{"Charlie", 35, "Seattle", "Engineering", "2015-11-02"},
		{"David", 28, "Austin", "Sales", "2021-01-11"},
		{"Eve", 32, "Boston", "Engineering", "2018-06-25"},
	}
	for r, row := range data {
		for c, val := range row {
			var v model.Value
			switch x := val.(type) {
			case int:
				v = model.Number(x)
			case string:
				if t, err := time.Parse("2006-01-02", x); err == nil {
					v = model.NewDate(t)
				} else {
					v = model.Text(x)
				}
			}
			staff.SetValue(r+1, c, v)
		}
	}
	staff.SetValue(len(data)+1, 0, model.Text("Average age"))
	staff.SetValue(len(data)+1, 1, model.Formula{Expr: fmt.Sprintf("AVERAGE(B2:B%d)", len(data)+1), Result: model.Number(30)})
	if err := staff.MergeRef(fmt.Sprintf("C%d:E%d", len(data)+2, len(data)+2)); err != nil {
		log.Fatal(err)
	}
	staff.Cols[0] = model.ColInfo{Width: 14}
	staff.Cols[2] = model.ColInfo{Width: 18}
	staff.View.FrozenRows = 1
	staff.Touch(0, 0).Comment = &model.Comment{Text: "Full legal name", Author: "hr"}

	products, err := wb.AddSheet("Products")
	if err != nil {
		log.Fatal(err)
	}
	productsHeaders := []string{"Product", "Price", "Stock"}
	for i, h := range productsHeaders {
		products.SetValue(0, i, model.Text(h)).Style = header
	}
	productsData := [][]any{
		{"Laptop", 999.99, 50},
		{"Mouse", 29.99, 200},
		{"Keyboard", 79.99, 150},
	}
	price := &styles.Descriptor{NumberFormat: "#,##0.00"}
	for r, row := range productsData {
		products.SetValue(r+1, 0, model.Text(row[0].(string)))
		products.SetValue(r+1, 1, model.Number(row[1].(float64))).Style = price
		products.SetValue(r+1, 2, model.Number(float64(row[2].(int))))
	}
	back := products.SetValue(len(productsData)+2, 0, model.Text("Back to staff"))
	back.Hyperlink = &model.Hyperlink{Target: "#Staff!A1"}

	doc, err := model.NewDocument(wb).MarshalIndent()
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile("testdata/sample.json", append(doc, '\n'), 0644); err != nil {
		log.Fatal(err)
	}

	// Save file
	if err := codec.NewWriter().ExportFile("testdata/sample.xlsx", wb, codec.ExportOptions{}); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Created sample.json and sample.xlsx with", len(data), "rows in Staff and", len(productsData), "rows in Products")
}
