package sqlinline

const QSelectAppSetting = `--sql c07d6074-1abd-4d8a-929f-57699bfbaac3
select setting_value
from app_settings
where setting_key = $1::text
limit 1;
`

const QUpsertAppSetting = `--sql eaa5f84f-57a1-4b32-a1fe-c30fe84dcb6e
insert into app_settings (setting_key, setting_value, updated_at)
values ($1::text, $2::text, now())
on conflict (setting_key) do update set
    setting_value = excluded.setting_value,
    updated_at = now();
`
