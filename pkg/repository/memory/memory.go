package memory

import (
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository backend for development and tests
type Memory struct {
	settings *authoritySettingRepository
	logs     *actionLogRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		settings: newAuthoritySettingRepository(),
		logs:     newActionLogRepository(),
	}
}

func (m *Memory) AuthoritySetting() interfaces.AuthoritySettingRepository {
	return m.settings
}

func (m *Memory) ActionLog() interfaces.ActionLogRepository {
	return m.logs
}

func (m *Memory) Close() error {
	return nil
}
