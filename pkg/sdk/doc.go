// Package polaudit embeds the policy auditor in a Go program: it searches a
// subject's document collection, records relevancy feedback as training data
// and audits the term tables, without running the HTTP API.
//
//	client, _ := polaudit.New(ctx,
//	    polaudit.WithDiscovery(url, apiKey, environmentID),
//	    polaudit.WithCollections(map[string]string{"biden": "col-1", "trump": "col-2"}),
//	    polaudit.WithTermTables("data/ignored-terms.txt", "data/article-names.txt", "data/article-summaries.json"),
//	)
//	defer client.Close()
//
//	results, _ := client.Query(ctx, "biden", "climate plan")
//	_ = client.Feedback(ctx, polaudit.Feedback{
//	    DocumentID: results[0].DocumentID,
//	    Query:      "climate plan",
//	    Subject:    "biden",
//	    Relevancy:  polaudit.Relevant,
//	})
package polaudit
