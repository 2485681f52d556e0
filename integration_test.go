//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rowstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/rowstore"
	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore/storagetest"
	"github.com/suparena/rowstore/errors"
	"github.com/suparena/rowstore/storagemodels"
)

// TestIntegration_ConfiguredStores exercises every store named in the
// configuration found by config.Load (ROWSTORE_CONFIG or ./rowstore.yaml).
// Stores may hold earlier data, so assertions are scoped to rows created here.
func TestIntegration_ConfiguredStores(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	for _, name := range cfg.StoreNames() {
		storeCfg := cfg.Stores[name]
		t.Run(fmt.Sprintf("%s/%s", name, storeCfg.Type), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			port, err := rowstore.Open(ctx, storeCfg, storagetest.Catalog())
			require.NoError(t, err)
			defer port.Close()

			label := fmt.Sprintf("it-%d", time.Now().UnixNano())
			teamID, err := port.AddRow(ctx, "team", storagemodels.Row{"label": label})
			require.NoError(t, err)

			personID, err := port.AddRow(ctx, "person", storagemodels.Row{"name": label, "age": 41})
			require.NoError(t, err)
			assert.Greater(t, personID, int64(0))

			require.NoError(t, port.AddRelationRow(ctx, "membership", storagemodels.Row{"person": personID, "team": teamID, "role": "lead"}))
			require.NoError(t, port.UpdateRelationTableRow(ctx, "membership", storagemodels.Row{"person": personID, "team": teamID, "sorting": 3}))

			q := storagemodels.NewQuery("membership").Where("person", personID)
			rows, err := port.GetObjectDataByQuery(ctx, q)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, int64(3), rows[0]["sorting"])
			assert.Equal(t, "lead", rows[0]["role"])

			got, found, err := port.GetUIDOfAlreadyPersistedValueObject(ctx, storagemodels.ValueObject{
				Table:  "team",
				Fields: storagemodels.Row{"label": label},
			})
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, teamID, got)

			maxAge, ok, err := port.GetMaxValueFromTable(ctx, "person", storagemodels.Predicate{"name": label}, "age")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, int64(41), maxAge)

			err = port.RemoveRow(ctx, "team", storagemodels.Predicate{"team_id": teamID})
			assert.True(t, errors.IsConstraintViolation(err), "referenced team cannot be removed")

			require.NoError(t, port.RemoveRow(ctx, "membership", storagemodels.Predicate{"person": personID}))
			require.NoError(t, port.RemoveRow(ctx, "team", storagemodels.Predicate{"team_id": teamID}))
			require.NoError(t, port.RemoveRow(ctx, "person", storagemodels.Predicate{"uid": personID}))

			n, err := port.GetObjectCountByQuery(ctx, storagemodels.NewQuery("person").Where("name", label))
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}
