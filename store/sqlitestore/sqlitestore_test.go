package sqlitestore_test

import (
	"testing"

	"github.com/matryer/is"

	factgraph "github.com/trueprep/fact-graph"
	"github.com/trueprep/fact-graph/store/sqlitestore"
)

func openMemDB(t *testing.T) *sqlitestore.DB {
	t.Helper()
	db, err := sqlitestore.Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDBPutGetDeleteRoundTrip(t *testing.T) {
	is := is.New(t)
	db := openMemDB(t)

	encoded, err := factgraph.EncodeTaggedValue(factgraph.NewDollar(1000))
	is.NoErr(err)

	is.NoErr(db.Put("/income", encoded))

	all, err := db.All()
	is.NoErr(err)
	is.Equal(len(all), 1)

	is.NoErr(db.Delete("/income"))
	all, err = db.All()
	is.NoErr(err)
	is.Equal(len(all), 0)
}

func TestDBMigrationsAppliedDefaultsToZero(t *testing.T) {
	is := is.New(t)
	db := openMemDB(t)

	n, err := db.MigrationsApplied()
	is.NoErr(err)
	is.Equal(n, 0)

	is.NoErr(db.SetMigrationsApplied(4))
	n, err = db.MigrationsApplied()
	is.NoErr(err)
	is.Equal(n, 4)
}

func TestSaveStoreThenLoadStoreRoundTrip(t *testing.T) {
	is := is.New(t)
	db := openMemDB(t)

	s := factgraph.NewStore()
	income, err := factgraph.ParsePath("/income")
	is.NoErr(err)
	s.Put(income, factgraph.NewDollar(5500))
	s.SetMigrationsApplied(2)

	is.NoErr(db.SaveStore(s))

	loaded, err := db.LoadStore()
	is.NoErr(err)
	is.Equal(loaded.MigrationsApplied(), 2)

	v, ok := loaded.Get(income)
	is.True(ok)
	is.Equal(v, factgraph.Value(factgraph.NewDollar(5500)))
}

func TestSaveStoreReplacesPriorContents(t *testing.T) {
	is := is.New(t)
	db := openMemDB(t)

	first := factgraph.NewStore()
	oldPath, _ := factgraph.ParsePath("/old")
	first.Put(oldPath, factgraph.NewInt(1))
	is.NoErr(db.SaveStore(first))

	second := factgraph.NewStore()
	newPath, _ := factgraph.ParsePath("/new")
	second.Put(newPath, factgraph.NewInt(2))
	is.NoErr(db.SaveStore(second))

	all, err := db.All()
	is.NoErr(err)
	is.Equal(len(all), 1)
	_, hasOld := all["/old"]
	is.True(!hasOld)
}
