package user_management

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type CreateUserUseCase struct {
	userRepo outbound.UserRepository
	logger   logger.Logger
}

func NewCreateUserUseCase(userRepo outbound.UserRepository, log logger.Logger) *CreateUserUseCase {
	return &CreateUserUseCase{
		userRepo: userRepo,
		logger:   log,
	}
}

func (uc *CreateUserUseCase) Execute(ctx context.Context, actor entity.Actor, req inbound.CreateUserRequest) (*entity.User, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, apperr.Unauthorized(apperr.Subject{Action: "create_user", ActorID: actor.ID}, "admin role required")
	}
	return uc.create(ctx, req)
}

// Bootstrap creates the administrator when none exists yet
func (uc *CreateUserUseCase) Bootstrap(ctx context.Context, req inbound.CreateUserRequest) (*entity.User, error) {
	req.Role = string(entity.RoleAdmin)
	return uc.create(ctx, req)
}

func (uc *CreateUserUseCase) create(ctx context.Context, req inbound.CreateUserRequest) (*entity.User, error) {
	role, subrole, err := validateCreateUserRequest(req)
	if err != nil {
		return nil, err
	}

	exists, err := uc.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, repoError("check email existence", err)
	}
	if exists {
		return nil, apperr.Conflict("email already registered")
	}

	if role == entity.RoleAdmin {
		admins, err := uc.userRepo.FindByRole(ctx, entity.RoleAdmin, entity.SubroleNone)
		if err != nil {
			return nil, repoError("find admins", err)
		}
		if len(admins) > 0 {
			return nil, apperr.Conflict("an administrator already exists")
		}
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	user := entity.NewUser(id, strings.TrimSpace(req.Name), req.Email, role, subrole, req.Department)

	if err := uc.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, outbound.ErrAdminExists):
			return nil, apperr.Conflict("an administrator already exists")
		case errors.Is(err, outbound.ErrUserAlreadyExists):
			return nil, apperr.Conflict("user already exists")
		}
		return nil, repoError("create user", err)
	}

	uc.logger.Info(ctx, "User created", map[string]interface{}{
		"user_id":    user.ID,
		"role":       string(user.Role),
		"department": user.Department,
	})
	return user, nil
}

func validateCreateUserRequest(req inbound.CreateUserRequest) (entity.Role, entity.Subrole, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 || len(name) > 255 {
		return "", "", apperr.Validation("name", "must be between 2 and 255 characters")
	}
	if !emailRegex.MatchString(strings.TrimSpace(req.Email)) {
		return "", "", apperr.Validation("email", "invalid format")
	}
	role, ok := entity.ParseRole(req.Role)
	if !ok {
		return "", "", apperr.Validation("role", "must be one of poc, requester, hod, finance, admin")
	}
	subrole, err := validateSubrole(role, req.Subrole)
	if err != nil {
		return "", "", err
	}
	if (role == entity.RolePOC || role == entity.RoleHOD) && strings.TrimSpace(req.Department) == "" {
		return "", "", apperr.Validation("department", "is required for requesters and department heads")
	}
	return role, subrole, nil
}

func validateSubrole(role entity.Role, raw string) (entity.Subrole, error) {
	subrole, ok := entity.ParseSubrole(raw)
	if !ok {
		return "", apperr.Validation("subrole", "must be apa or am")
	}
	if role == entity.RoleFinance && subrole == entity.SubroleNone {
		return "", apperr.Validation("subrole", "is required for finance users")
	}
	if role != entity.RoleFinance && subrole != entity.SubroleNone {
		return "", apperr.Validation("subrole", "only finance users carry a subrole")
	}
	return subrole, nil
}

func repoError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.RepositoryTimeout(op, err)
	}
	return apperr.Internal(op, err)
}
