// Package resumeqa is a Go client for resume question answering: it
// classifies a question into a job category, retrieves the closest resumes
// of that category from a vector index and synthesizes a cited answer.
//
// The client runs the pipeline in-process against Redis (RediSearch) or
// Qdrant and an OpenAI-compatible provider; no resumeqa server is needed.
//
//	client, err := resumeqa.New(ctx,
//	    resumeqa.WithRedis("localhost:6379", ""),
//	    resumeqa.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	_ = client.EnsureIndex(ctx)
//	_, _ = client.Ingest(ctx, "data/Resume.csv", resumeqa.IngestOptions{})
//
//	ans, err := client.Ask(ctx, "Who has experience with payroll systems?", 0)
//	fmt.Println(ans.Category, ans.Text)
//	for _, d := range ans.Docs {
//	    fmt.Println(d.ID, d.Score)
//	}
package resumeqa
