/*
Package storagemodels defines the data structures exchanged with a StoragePort.

Key Types:

Row and Predicate:
A Row maps column names to canonical values (nil, int64, float64, string,
bool, time.Time). A Predicate is a conjunctive equality filter; a nil value
matches NULL.

QuerySpec:
The minimal query description built by the persistence mapper:

	q := storagemodels.NewQuery("tx_blog_post").
	    Where("blog", int64(3)).
	    OrderBy("crdate", storagemodels.Descending).
	    WithLimit(10, 0)

ValueObject:
The table and field content of a value object, used for deduplication.

StreamResult and StreamOptions:
Streaming queries deliver rows on a channel that closes after the last row
or after a result carrying an error:

	for res := range port.StreamObjectDataByQuery(ctx, q,
	    storagemodels.WithBufferSize(50),
	    storagemodels.WithPageSize(200),
	) {
	    if res.Error != nil {
	        return res.Error
	    }
	    handle(res.Row)
	}
*/
package storagemodels
