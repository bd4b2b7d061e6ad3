package config

const (
	// TopicContentChanged carries CMS save events for projects, services,
	// gallery images and blog posts.
	TopicContentChanged = "content.changed"

	// TopicContentDeleted carries CMS delete events so embeddings are removed
	// together with their source entity.
	TopicContentDeleted = "content.deleted"

	// TopicReindexDone announces completion of a bulk reindex with its counts.
	TopicReindexDone = "search.reindex.done"
)
