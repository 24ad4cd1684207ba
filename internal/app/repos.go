package app

import (
	"gorm.io/gorm"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/repos"
)

type Repos struct {
	User         repos.UserRepo
	UserToken    repos.UserTokenRepo
	StudySession repos.StudySessionRepo
	CourseSource repos.CourseSourceRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:         repos.NewUserRepo(db, log),
		UserToken:    repos.NewUserTokenRepo(db, log),
		StudySession: repos.NewStudySessionRepo(db, log),
		CourseSource: repos.NewCourseSourceRepo(db, log),
	}
}
