package opensearch

import (
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"github.com/opensearch-project/opensearch-go/v2"
)

type RepositoryFactory struct {
	client *opensearch.Client

	eventStore core.EventRepository
}

func NewRepositoryFactory(client *opensearch.Client) *RepositoryFactory {
	return &RepositoryFactory{client: client}
}

func (r *RepositoryFactory) Event() core.EventRepository {
	if r.eventStore == nil {
		r.eventStore = NewEventStore(r.client)
	}
	return r.eventStore
}

var _ core.RepositoryFactory = (*RepositoryFactory)(nil)
