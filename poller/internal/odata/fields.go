package odata

// fieldSet is a membership set over raw (vendor-cased) field names.
type fieldSet map[string]struct{}

func newFieldSet(names ...string) fieldSet {
	set := make(fieldSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func (s fieldSet) contains(name string) bool {
	_, ok := s[name]
	return ok
}

// NumericFields is the master list of fields, across all vendor schemas, that
// must arrive in the warehouse as numbers. The API frequently serializes them
// as strings.
var NumericFields = newFieldSet(
	"Id", "PartyInfo_Id", "CheckId", "ItemSaleId", "ItemExternalCode",
	"AdjustedByUserExternalCode", "AdjustmentReasonExternalCode", "EmployeeNumber",
	"EmployeeNumber2", "JobNumber", "ShiftNumber", "LaborCategoryNumber",
	"UnPaidBreakCounts", "UnPaidBreakMinutes", "ExternalCode", "PaymentNumber",
	"CheckNumber", "DaypartExternalCode", "RevenueCenterExternalCode", "TenderType",
	"TenderOption", "TransactionType", "PlacementLocationTag",
	"CoverCount", "GrossSales", "NetSales", "NonRevenueSales", "Tax", "Discounts",
	"Comps", "Surcharges", "GrossAdjustments", "NonGrossAdjustments", "GiftCardsSold",
	"DepositsReceived", "DonationsReceived", "CashCollected", "CreditSalesCollected",
	"CreditTipsCollected", "AlternatePaymentsCollected", "AlternateTipsCollected",
	"MediaCollected", "Paidouts", "TaxCollected", "TaxForgiven", "TaxOwed",
	"Gratuities", "Voids", "CheckGratuities", "CheckTaxes", "DepositSalesCollected",
	"GiftCardSalesCollected", "GiftCardTipsCollected",
	"BasePrice", "Price", "ExtendedPrice", "NetPrice", "CompAmount",
	"PromoAmount", "TaxAmount", "VoidAmount", "SurchargeAmount",
	"Quantity", "AdjustmentAmount", "Weight", "TaxRate", "AppliedAdjustmentAmount",
	"ExtendedAppliedAdjustmentAmount", "Rate", "Amount", "Forgiven",
	"PaymentAmount", "TotalAmount", "TipAmount", "AutoTipAmount", "ChangeDue", "TenderAmount",
	"HoursWorked", "HourlyRate", "RegularPayRate", "TotalHours",
	"RegularHours", "OvertimePayRate", "OvertimeHours", "OvertimeWages",
	"DoubletimeHours", "DoubletimeWages", "CreditCardTips", "DeclaredTips",
	"Sales", "RegularWages", "TotalHoursUnrounded", "RegularHoursUnrounded",
	"OvertimeHoursUnrounded", "DoubletimeHoursUnrounded",
)

// StringFields are fields the API sometimes serializes as numbers but the
// warehouse schemas declare as strings (display numbers, postal codes, ...).
var StringFields = newFieldSet(
	"ObjectId", "ExternalId", "CheckDisplayNumber", "ReferenceNumber",
	"PhoneNumber", "ZipCode", "TerminalNumber",
)

// DroppedFields are fields with known, unfixable type mismatches between the
// API and the warehouse schemas. They are discarded at the boundary.
var DroppedFields = newFieldSet(
	"RowVersion", "EntityState",
)
