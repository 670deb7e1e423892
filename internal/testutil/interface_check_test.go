package testutil

import (
	"github.com/lookatitude/skill-engine/internal/testutil/mockembedder"
	"github.com/lookatitude/skill-engine/internal/testutil/mockstore"
	"github.com/lookatitude/skill-engine/internal/testutil/mockworkflow"
	"github.com/lookatitude/skill-engine/rag/embedding"
	"github.com/lookatitude/skill-engine/rag/vectorstore"
	"github.com/lookatitude/skill-engine/workflow"
)

// Compile-time interface checks to ensure mocks implement their target interfaces.
var (
	_ embedding.Embedder      = (*mockembedder.MockEmbedder)(nil)
	_ vectorstore.VectorStore = (*mockstore.MockVectorStore)(nil)
	_ workflow.WorkflowStore  = (*mockworkflow.MockWorkflowStore)(nil)
)
