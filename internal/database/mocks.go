// Copyright (C) 2021  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package database

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lukasdietrich/sharpmail/internal/models"
)

// MockMailDao is a mock implementation of MailDao for tests.
type MockMailDao struct {
	mock.Mock
}

var _ MailDao = (*MockMailDao)(nil)

func (m *MockMailDao) Insert(ctx context.Context, q Queryer, mail *models.MailEntity) error {
	return m.Called(ctx, q, mail).Error(0)
}

func (m *MockMailDao) Update(ctx context.Context, q Queryer, mail *models.MailEntity) error {
	return m.Called(ctx, q, mail).Error(0)
}

func (m *MockMailDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.MailEntity, error) {
	args := m.Called(ctx, q, id)
	mail, _ := args.Get(0).(*models.MailEntity)
	return mail, args.Error(1)
}

func (m *MockMailDao) FindDueScheduled(
	ctx context.Context,
	q Queryer,
	now int64,
	limit int,
) ([]models.MailEntity, error) {
	args := m.Called(ctx, q, now, limit)
	mailSlice, _ := args.Get(0).([]models.MailEntity)
	return mailSlice, args.Error(1)
}

func (m *MockMailDao) FailStalePending(
	ctx context.Context,
	q Queryer,
	cutoff int64,
	reason string,
) (int64, error) {
	args := m.Called(ctx, q, cutoff, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMailDao) FindExpired(ctx context.Context, q Queryer, now int64) ([]int64, error) {
	args := m.Called(ctx, q, now)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *MockMailDao) DeleteByIDs(ctx context.Context, q Queryer, ids []int64) error {
	return m.Called(ctx, q, ids).Error(0)
}

// MockUserDao is a mock implementation of UserDao for tests.
type MockUserDao struct {
	mock.Mock
}

var _ UserDao = (*MockUserDao)(nil)

func (m *MockUserDao) Insert(ctx context.Context, q Queryer, user *models.UserEntity) error {
	return m.Called(ctx, q, user).Error(0)
}

func (m *MockUserDao) Update(ctx context.Context, q Queryer, user *models.UserEntity) error {
	return m.Called(ctx, q, user).Error(0)
}

func (m *MockUserDao) FindByName(
	ctx context.Context,
	q Queryer,
	username, domain string,
) (*models.UserEntity, error) {
	args := m.Called(ctx, q, username, domain)
	user, _ := args.Get(0).(*models.UserEntity)
	return user, args.Error(1)
}

func (m *MockUserDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.UserEntity, error) {
	args := m.Called(ctx, q, id)
	user, _ := args.Get(0).(*models.UserEntity)
	return user, args.Error(1)
}

func (m *MockUserDao) FindAll(ctx context.Context, q Queryer) ([]models.UserEntity, error) {
	args := m.Called(ctx, q)
	userSlice, _ := args.Get(0).([]models.UserEntity)
	return userSlice, args.Error(1)
}

// MockHashcashDao is a mock implementation of HashcashDao for tests.
type MockHashcashDao struct {
	mock.Mock
}

var _ HashcashDao = (*MockHashcashDao)(nil)

func (m *MockHashcashDao) InsertUsed(
	ctx context.Context,
	q Queryer,
	token *models.UsedTokenEntity,
) error {
	return m.Called(ctx, q, token).Error(0)
}

func (m *MockHashcashDao) ExistsUsed(ctx context.Context, q Queryer, token string) (bool, error) {
	args := m.Called(ctx, q, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockHashcashDao) DeleteExpired(ctx context.Context, q Queryer, now int64) (int64, error) {
	args := m.Called(ctx, q, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockAttachmentDao is a mock implementation of AttachmentDao for tests.
type MockAttachmentDao struct {
	mock.Mock
}

var _ AttachmentDao = (*MockAttachmentDao)(nil)

func (m *MockAttachmentDao) Insert(
	ctx context.Context,
	q Queryer,
	attachment *models.AttachmentEntity,
) error {
	return m.Called(ctx, q, attachment).Error(0)
}

func (m *MockAttachmentDao) Link(
	ctx context.Context,
	q Queryer,
	keys []string,
	mailID int64,
	status models.Status,
) error {
	return m.Called(ctx, q, keys, mailID, status).Error(0)
}

func (m *MockAttachmentDao) UpdateStatusByMail(
	ctx context.Context,
	q Queryer,
	mailID int64,
	status models.Status,
) error {
	return m.Called(ctx, q, mailID, status).Error(0)
}

func (m *MockAttachmentDao) FindByKey(
	ctx context.Context,
	q Queryer,
	key string,
) (*models.AttachmentEntity, error) {
	args := m.Called(ctx, q, key)
	attachment, _ := args.Get(0).(*models.AttachmentEntity)
	return attachment, args.Error(1)
}

func (m *MockAttachmentDao) FindByMail(
	ctx context.Context,
	q Queryer,
	mailID int64,
) ([]models.AttachmentEntity, error) {
	args := m.Called(ctx, q, mailID)
	attachmentSlice, _ := args.Get(0).([]models.AttachmentEntity)
	return attachmentSlice, args.Error(1)
}

func (m *MockAttachmentDao) DeleteByMails(
	ctx context.Context,
	q Queryer,
	mailIDs []int64,
) ([]string, error) {
	args := m.Called(ctx, q, mailIDs)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

// MockAuthTokenDao is a mock implementation of AuthTokenDao for tests.
type MockAuthTokenDao struct {
	mock.Mock
}

var _ AuthTokenDao = (*MockAuthTokenDao)(nil)

func (m *MockAuthTokenDao) Insert(
	ctx context.Context,
	q Queryer,
	token *models.AuthTokenEntity,
) error {
	return m.Called(ctx, q, token).Error(0)
}

func (m *MockAuthTokenDao) FindByToken(
	ctx context.Context,
	q Queryer,
	token string,
) (*models.AuthTokenEntity, error) {
	args := m.Called(ctx, q, token)
	entity, _ := args.Get(0).(*models.AuthTokenEntity)
	return entity, args.Error(1)
}

func (m *MockAuthTokenDao) DeleteExpired(
	ctx context.Context,
	q Queryer,
	now int64,
) (int64, error) {
	args := m.Called(ctx, q, now)
	return args.Get(0).(int64), args.Error(1)
}
