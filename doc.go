// Package recordkit streams query results as ordered records, converts
// column values into typed objects through a mapper chain and folds related
// rows into nested records.
//
// # Reading
//
//	client, err := recordkit.Open("sqlite", "file:app.db")
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	for r, err := range client.Rows(ctx, "SELECT id, name FROM users WHERE active = ?", true) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(r.Value("name"))
//	}
//
// Rows closes the cursor when the loop ends, including on break. Select
// returns the iterator itself; the caller must Close it.
//
// # Typed values
//
// SelectWithObjects asks the value mapper for a converter per declared
// column type and converts every non-null value of the matching columns:
//
//	client := recordkit.NewClient(drv, recordkit.WithValueMapper(mapper.Default()))
//	it, err := client.SelectWithObjects(ctx, "SELECT id, created_at FROM users")
//
// # Folding
//
// A transformer factory re-shapes every stream a client returns. Rows must
// be ordered by the fold keys:
//
//	client.SetTransformer(func() record.Transformer {
//	    t, _ := record.NewStackBy([]string{"id"}, []string{"tag"})
//	    return t
//	})
//
// # Writing
//
// Inject returns a sink executing a statement once per accepted parameter
// set:
//
//	sink := client.Inject(ctx, "INSERT INTO tags (id, tag) VALUES (?, ?)")
//	defer sink.Close()
//	for _, t := range tags {
//	    if _, err := sink.Accept(t.ID, t.Name); err != nil {
//	        return err
//	    }
//	}
package recordkit
