// record-seeder serves a fake vendor OData API for local development. It
// speaks just enough of the vendor dialect to exercise the poller: PascalCase
// fields, /Date(ms)/ timestamps, numbers serialized as strings, __metadata
// noise, and $top/$skip pagination.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var endpointTables = map[string]string{
	"Checks":              "pos_checks",
	"ItemSales":           "pos_item_sales",
	"Customers":           "pos_customers",
	"TimeRecords":         "pos_time_records",
	"Paidouts":            "pos_paidouts",
	"Payments":            "pos_payments",
	"ItemSaleAdjustments": "pos_item_sale_adjustments",
	"ItemSaleTaxes":       "pos_item_sale_taxes",
	"ItemSaleComponents":  "pos_item_sale_components",
}

type seeder struct {
	faker   *gofakeit.Faker
	perPage int
	total   int
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	total := flag.Int("records", 2350, "records per endpoint")
	seed := flag.Int64("seed", 0, "faker seed (0 for random)")
	flag.Parse()

	s := &seeder{
		faker: gofakeit.New(*seed),
		total: *total,
	}

	mux := http.NewServeMux()
	for name := range endpointTables {
		mux.HandleFunc("/"+name, s.handleEndpoint(name))
	}

	log.Printf("record-seeder listening on %s (%d records per endpoint)", *addr, *total)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

func (s *seeder) handleEndpoint(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "AccessToken=") {
			http.Error(w, "missing access token", http.StatusUnauthorized)
			return
		}

		top := queryInt(r, "$top", 1000)
		skip := queryInt(r, "$skip", 0)

		var records []map[string]any
		for i := skip; i < s.total && len(records) < top; i++ {
			records = append(records, s.record(name, i))
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"d": records}); err != nil {
			log.Printf("ERROR: encode response: %v", err)
		}
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// record fabricates one vendor-shaped raw record. The index keys the record
// identity so pagination never produces duplicate ids.
func (s *seeder) record(endpoint string, index int) map[string]any {
	businessDate := time.Now().AddDate(0, 0, -s.faker.Number(0, 6)).Truncate(24 * time.Hour)

	record := map[string]any{
		"__metadata": map[string]any{
			"uri":  fmt.Sprintf("https://vendor.example.com/%s(%d)", endpoint, index+1),
			"type": "PosModel." + strings.TrimSuffix(endpoint, "s"),
		},
		"Id":           index + 1,
		"ObjectId":     s.faker.UUID(),
		"SiteId":       s.faker.UUID(),
		"BusinessDate": fmt.Sprintf("/Date(%d)/", businessDate.UnixMilli()),
		"RowVersion":   "AAAAAAAAB9E=",
		"PartyInfo": map[string]any{
			"__deferred": map[string]any{
				"uri": fmt.Sprintf("https://vendor.example.com/%s(%d)/PartyInfo", endpoint, index+1),
			},
		},
	}

	switch endpoint {
	case "Checks":
		record["CheckNumber"] = strconv.Itoa(s.faker.Number(1, 9999))
		record["CheckDisplayNumber"] = s.faker.Number(1, 9999)
		record["CoverCount"] = strconv.Itoa(s.faker.Number(1, 8))
		record["GrossSales"] = fmt.Sprintf("%.2f", s.faker.Float64Range(5, 400))
		record["NetSales"] = fmt.Sprintf("%.2f", s.faker.Float64Range(5, 350))
		record["Tax"] = fmt.Sprintf("%.2f", s.faker.Float64Range(0, 30))
		record["Gratuities"] = ""
	case "ItemSales":
		record["CheckId"] = strconv.Itoa(s.faker.Number(1, 9999))
		record["ItemName"] = s.faker.Breakfast()
		record["Quantity"] = strconv.Itoa(s.faker.Number(1, 5))
		record["Price"] = fmt.Sprintf("%.2f", s.faker.Float64Range(1, 60))
		record["TaxAmount"] = "null"
	case "Customers":
		record["FirstName"] = s.faker.FirstName()
		record["LastName"] = s.faker.LastName()
		record["PhoneNumber"] = s.faker.Number(2000000000, 9999999999)
		record["ZipCode"] = s.faker.Number(10000, 99999)
		record["ModifiedOn"] = fmt.Sprintf("/Date(%d)/", time.Now().UnixMilli())
	case "TimeRecords":
		record["EmployeeNumber"] = strconv.Itoa(s.faker.Number(100, 999))
		record["JobNumber"] = strconv.Itoa(s.faker.Number(1, 20))
		record["InTime"] = fmt.Sprintf("/Date(%d)/", businessDate.Add(9*time.Hour).UnixMilli())
		record["OutTime"] = fmt.Sprintf("/Date(%d)/", businessDate.Add(17*time.Hour).UnixMilli())
		record["ModifiedOn"] = fmt.Sprintf("/Date(%d)/", time.Now().UnixMilli())
		record["TotalHours"] = fmt.Sprintf("%.2f", s.faker.Float64Range(2, 10))
		record["HourlyRate"] = fmt.Sprintf("%.2f", s.faker.Float64Range(12, 45))
	case "Paidouts":
		record["Amount"] = fmt.Sprintf("%.2f", s.faker.Float64Range(5, 150))
		record["Reason"] = s.faker.ProductName()
		record["ReferenceNumber"] = s.faker.Number(1000, 999999)
	case "Payments":
		delete(record, "BusinessDate")
		record["CheckId"] = strconv.Itoa(s.faker.Number(1, 9999))
		record["TenderType"] = strconv.Itoa(s.faker.Number(1, 9))
		record["PaymentAmount"] = fmt.Sprintf("%.2f", s.faker.Float64Range(5, 300))
		record["TipAmount"] = fmt.Sprintf("%.2f", s.faker.Float64Range(0, 50))
		record["TerminalNumber"] = s.faker.Number(1, 12)
	case "ItemSaleAdjustments":
		record["ItemSaleId"] = strconv.Itoa(s.faker.Number(1, 99999))
		record["AdjustmentAmount"] = fmt.Sprintf("%.2f", s.faker.Float64Range(-20, 0))
	case "ItemSaleTaxes":
		record["ItemSaleId"] = strconv.Itoa(s.faker.Number(1, 99999))
		record["Rate"] = fmt.Sprintf("%.4f", s.faker.Float64Range(0.01, 0.12))
		record["Amount"] = fmt.Sprintf("%.2f", s.faker.Float64Range(0, 10))
	case "ItemSaleComponents":
		record["ItemSaleId"] = strconv.Itoa(s.faker.Number(1, 99999))
		record["ComponentName"] = s.faker.Lunch()
		record["Quantity"] = strconv.Itoa(s.faker.Number(1, 3))
	}

	return record
}
