package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type amountInput struct {
	Amount   decimal.Decimal  `validate:"required"`
	Expected *decimal.Decimal `validate:"omitempty,gte=0"`
}

type enumInput struct {
	Kind      string `validate:"omitempty,transaction_kind"`
	SortBy    string `validate:"omitempty,transaction_sort"`
	Order     string `validate:"omitempty,sort_order"`
	Sign      string `validate:"omitempty,margin_sign"`
	Status    string `validate:"omitempty,goal_status"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func TestDecimalValidation(t *testing.T) {
	v := newValidate()
	neg := decimal.NewFromInt(-1)
	pos := decimal.NewFromInt(10)

	tests := []struct {
		name    string
		input   amountInput
		wantErr bool
	}{
		{"nonzero amount", amountInput{Amount: decimal.NewFromInt(-50)}, false},
		{"zero amount", amountInput{Amount: decimal.Zero}, true},
		{"negative expected", amountInput{Amount: pos, Expected: &neg}, true},
		{"positive expected", amountInput{Amount: pos, Expected: &pos}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnumValidation(t *testing.T) {
	v := newValidate()

	valid := enumInput{Kind: "expense", SortBy: "amount", Order: "asc", Sign: "negative", Status: "active"}
	if err := v.Struct(valid); err != nil {
		t.Errorf("expected valid input, got %v", err)
	}

	invalid := []enumInput{
		{Kind: "transfer"},
		{SortBy: "category"},
		{Order: "up"},
		{Sign: "zero"},
		{Status: "done"},
	}
	for _, in := range invalid {
		if err := v.Struct(in); err == nil {
			t.Errorf("expected %+v to be rejected", in)
		}
	}
}
