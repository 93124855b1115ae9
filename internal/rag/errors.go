package rag

import "docrag/internal/errs"

func dependencyMissing(provider string) *errs.AppError {
	return errs.DependencyMissing("llm provider not configured", map[string]any{"provider": provider})
}
