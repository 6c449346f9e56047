package dataprocessing

// FieldType is the declared type of a CSV column.
type FieldType int

const (
	// Text keeps the cell as a string. Undeclared columns are Text.
	Text FieldType = iota
	Number
	Flag
	Timestamp
)

func (t FieldType) String() string {
	switch t {
	case Number:
		return "number"
	case Flag:
		return "flag"
	case Timestamp:
		return "timestamp"
	default:
		return "text"
	}
}

// Dataset names, as used by the cache and the API.
const (
	WaterQuality = "waterQuality"
	Distribution = "distribution"
	Energy       = "energy"
	Maintenance  = "maintenance"
	Consumption  = "consumption"
	Complaints   = "complaints"
)

// Schema declares how one source file is read.
type Schema struct {
	Name      string
	File      string
	TimeField string
	Fields    map[string]FieldType
}

// TypeOf returns the declared type of field, Text when undeclared.
func (s Schema) TypeOf(field string) FieldType {
	if t, ok := s.Fields[field]; ok {
		return t
	}
	return Text
}

// Yes/No compliance and status columns stay Text: calculators compare them
// with literal values and identifiers such as customer_id must never turn
// into numbers.
var schemas = []Schema{
	{
		Name:      WaterQuality,
		File:      "water-quality-monitoring.csv",
		TimeField: "timestamp",
		Fields: map[string]FieldType{
			"timestamp":          Timestamp,
			"chlorine_mg_l":      Number,
			"ph":                 Number,
			"turbidity_ntu":      Number,
			"temperature_c":      Number,
			"conductivity_us_cm": Number,
		},
	},
	{
		Name:      Distribution,
		File:      "distribution-network-performance.csv",
		TimeField: "timestamp",
		Fields: map[string]FieldType{
			"timestamp":              Timestamp,
			"flow_rate_gpm":          Number,
			"pressure_psi":           Number,
			"billed_consumption_gpm": Number,
			"nrw_gpm":                Number,
			"nrw_percent":            Number,
		},
	},
	{
		Name:      Energy,
		File:      "energy-usage.csv",
		TimeField: "timestamp",
		Fields: map[string]FieldType{
			"timestamp":                     Timestamp,
			"energy_consumption_kwh":        Number,
			"energy_cost_usd":               Number,
			"energy_rate_per_kwh":           Number,
			"water_produced_gallons":        Number,
			"energy_efficiency_gal_per_kwh": Number,
		},
	},
	{
		Name:      Maintenance,
		File:      "maintenance-records.csv",
		TimeField: "maintenance_date",
		Fields: map[string]FieldType{
			"install_date":     Timestamp,
			"maintenance_date": Timestamp,
			"age_years":        Number,
			"downtime_hours":   Number,
			"cost_usd":         Number,
		},
	},
	{
		Name:      Consumption,
		File:      "customer-consumption.csv",
		TimeField: "billing_date",
		Fields: map[string]FieldType{
			"billing_date":        Timestamp,
			"consumption_gallons": Number,
			"bill_amount_usd":     Number,
		},
	},
	{
		Name:      Complaints,
		File:      "customer-complaints.csv",
		TimeField: "complaint_date",
		Fields: map[string]FieldType{
			"complaint_date":   Timestamp,
			"resolution_date":  Timestamp,
			"resolution_hours": Number,
		},
	},
}

// Schemas returns the built-in schemas in load order.
func Schemas() []Schema {
	out := make([]Schema, len(schemas))
	copy(out, schemas)
	return out
}

// SchemaFor looks up a built-in schema by dataset name.
func SchemaFor(name string) (Schema, bool) {
	for _, s := range schemas {
		if s.Name == name {
			return s, true
		}
	}
	return Schema{}, false
}

// DatasetNames lists the built-in dataset names in load order.
func DatasetNames() []string {
	names := make([]string, len(schemas))
	for i, s := range schemas {
		names[i] = s.Name
	}
	return names
}
