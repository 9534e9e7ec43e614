package memory

import (
	"fmt"
	"time"

	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

// Demo returns a driver preloaded with a small wind farm: assets, their
// properties and raw and latest time series.
func Demo(pageSize int) *Driver {
	assets := Table{
		Name: "asset",
		Columns: []Column{
			{"asset_id", sqltype.String},
			{"asset_name", sqltype.String},
			{"asset_description", sqltype.String},
			{"asset_model_id", sqltype.String},
			{"parent_asset_id", sqltype.String},
			{"asset_tags", sqltype.NotSet},
		},
	}
	properties := Table{
		Name: "asset_property",
		Columns: []Column{
			{"asset_id", sqltype.String},
			{"property_id", sqltype.String},
			{"property_name", sqltype.String},
			{"property_alias", sqltype.String},
			{"property_data_type", sqltype.String},
			{"property_unit", sqltype.String},
		},
	}
	raw := Table{
		Name: "raw_time_series",
		Columns: []Column{
			{"asset_id", sqltype.String},
			{"property_id", sqltype.String},
			{"event_timestamp", sqltype.Timestamp},
			{"quality", sqltype.String},
			{"boolean_value", sqltype.Boolean},
			{"int_value", sqltype.Int},
			{"double_value", sqltype.Double},
			{"string_value", sqltype.String},
		},
	}
	latest := Table{
		Name:    "latest_value_time_series",
		Columns: raw.Columns,
	}

	start := time.Date(2022, 11, 9, 23, 52, 51, 554000000, time.UTC)
	farm := database.Scalar("farm-1")

	assets.Rows = append(assets.Rows, []database.Datum{
		farm, database.Scalar("Wind Farm"), database.Scalar("North ridge site"),
		database.Scalar("model-farm"), database.Null(), database.Array(database.Scalar("site"), database.Scalar("north")),
	})

	for i := 1; i <= 3; i++ {
		assetID := fmt.Sprintf("turbine-%d", i)
		assets.Rows = append(assets.Rows, []database.Datum{
			database.Scalar(assetID), database.Scalar(fmt.Sprintf("Turbine %d", i)), database.Null(),
			database.Scalar("model-turbine"), farm, database.Array(),
		})

		for _, p := range []struct{ id, name, typ, unit string }{
			{"rpm", "Rotor Speed", "DOUBLE", "rpm"},
			{"running", "Running", "BOOLEAN", ""},
			{"faults", "Fault Count", "INTEGER", ""},
		} {
			properties.Rows = append(properties.Rows, []database.Datum{
				database.Scalar(assetID), database.Scalar(p.id), database.Scalar(p.name),
				database.Scalar("/farm/" + assetID + "/" + p.id), database.Scalar(p.typ), database.Scalar(p.unit),
			})
		}

		var last []database.Datum
		for n := 0; n < 20; n++ {
			ts := start.Add(time.Duration(n) * time.Minute).Format("2006-01-02 15:04:05.000000000")
			last = []database.Datum{
				database.Scalar(assetID), database.Scalar("rpm"), database.Scalar(ts), database.Scalar("GOOD"),
				database.Null(), database.Null(), database.Scalar(fmt.Sprintf("%d.%d", 10+i+n%7, n%10)), database.Null(),
			}
			raw.Rows = append(raw.Rows, last)
		}
		latest.Rows = append(latest.Rows, last)
	}

	return New(pageSize, assets, properties, raw, latest)
}
