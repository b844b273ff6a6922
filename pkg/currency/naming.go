package currency

import "strings"

// NamingRules mirrors config.CurrencyRules' naming-relevant fields so this
// package stays free of an import on config (which in turn imports
// pkg/crypto and pkg/types).
type NamingRules struct {
	MinNameLength        int
	MaxNameLength        int
	CodeLength           int
	MaxDescriptionLength int
	Alphabet             string // permitted lowercase+digit characters for a normalized name
	CodeLetters          string // permitted uppercase characters for a code
}

// reservedName/reservedCode block the historical NXT native-coin name and
// code from being claimed by a user-issued currency.
const (
	reservedName = "nxt"
	reservedCode = "NXT"
)

// ExistingCurrency is the minimal shape NamingValidator needs from the
// active currency registry to check for duplicates.
type ExistingCurrency struct {
	Name string
	Code string
}

// ValidateNaming checks name/code/description against the naming rules and,
// if active is non-nil, against the active currency registry for
// duplicates. Duplicate checks compare:
//   - normalized (lowercase) name against other normalized names
//   - normalized name against other codes lowercased
//   - code against other codes
//   - code against other normalized names uppercased
func ValidateNaming(rules NamingRules, name, code, description string, active []ExistingCurrency) error {
	if len(name) < rules.MinNameLength || len(name) > rules.MaxNameLength {
		return NotValidf("currency name length must be between %d and %d", rules.MinNameLength, rules.MaxNameLength)
	}
	if len(code) != rules.CodeLength {
		return NotValidf("currency code must be exactly %d characters", rules.CodeLength)
	}
	if len(description) > rules.MaxDescriptionLength {
		return NotValidf("currency description exceeds %d characters", rules.MaxDescriptionLength)
	}

	normalizedName := strings.ToLower(name)
	if !onlyChars(normalizedName, rules.Alphabet) {
		return NotValid("currency name contains characters outside the permitted alphabet")
	}
	if !onlyChars(code, rules.CodeLetters) {
		return NotValid("currency code contains characters outside the permitted alphabet")
	}

	if code == reservedCode || normalizedName == reservedName {
		return NotValid("name already used")
	}

	for _, c := range active {
		existingName := strings.ToLower(c.Name)
		existingCode := c.Code
		if normalizedName == existingName ||
			normalizedName == strings.ToLower(existingCode) ||
			code == existingCode ||
			code == strings.ToUpper(existingName) {
			return NotCurrentlyValid("currency name or code already in use")
		}
	}

	return nil
}

func onlyChars(s, allowed string) bool {
	for _, r := range s {
		if !strings.ContainsRune(allowed, r) {
			return false
		}
	}
	return true
}
