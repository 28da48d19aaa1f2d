package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChecksMessage() map[string]any {
	return map[string]any{
		"record_id":    "a1b2c3d4e5f6",
		"sync_id":      "Checks_20250630_120000",
		"event_type":   "pos.checks",
		"table_name":   "pos_checks",
		"processed_at": "2025-06-30T12:00:00Z",
		"data": map[string]any{
			"id":            float64(123),
			"object_id":     "36b492b3-d80e-4b5f-9ac6-35125a19fa0e",
			"party_info_id": float64(456),
			"business_date": "2025-06-30",
			"net_sales":     100.50,
			"tax_owed":      8.50,
			"gratuities":    20.00,
		},
	}
}

func TestNewRegistryCompilesAllSchemas(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	types := r.EventTypes()
	assert.Len(t, types, 9)
	for _, eventType := range []string{
		"pos.checks", "pos.item_sales", "pos.customers", "pos.time_records",
		"pos.paidouts", "pos.payments", "pos.item_sale_adjustments",
		"pos.item_sale_taxes", "pos.item_sale_components",
	} {
		assert.Contains(t, types, eventType)
	}
}

func TestValidateAcceptsValidMessage(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.NoError(t, r.Validate(validChecksMessage()))
}

func TestValidateRejectsMissingEnvelopeField(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	message := validChecksMessage()
	delete(message, "record_id")
	assert.Error(t, r.Validate(message))
}

func TestValidateRejectsBadRecordID(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	message := validChecksMessage()
	message["record_id"] = "not-a-hash"
	assert.Error(t, r.Validate(message))
}

func TestValidateRejectsStringNumeric(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	message := validChecksMessage()
	message["data"].(map[string]any)["net_sales"] = "100.50"
	assert.Error(t, r.Validate(message))
}

func TestValidateRejectsWrongTableName(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	message := validChecksMessage()
	message["table_name"] = "pos_payments"
	assert.Error(t, r.Validate(message))
}

func TestValidateFailsClosedOnUnknownEventType(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	message := validChecksMessage()
	message["event_type"] = "pos.unknown_table"
	err = r.Validate(message)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema registered")
}

func TestValidateMissingEventType(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.Error(t, r.Validate(map[string]any{"table_name": "pos_checks"}))
}
