package usecase

import "ai-coach-chat/internal/domain/ports/repository"

// In-memory stores shared with the usecase_test package.

type MockTxManager = mockTxManager

func NewMemChatRepos() (repository.ConversationRepository, repository.ChatMessageRepository, repository.ChatJobRepository) {
	s := newMemChatStore()
	return memConvRepo{s}, memMsgRepo{s}, memJobRepo{s}
}

func NewMemStatsRepo() repository.WeeklyStatsRepository { return &memStatsRepo{} }

func NewMemProfileRepo() repository.HealthProfileRepository { return &memProfileRepo{} }
